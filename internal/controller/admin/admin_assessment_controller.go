package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/internal/controller"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminAssessmentController struct {
	assessmentService service.AssessmentService
}

func NewAdminAssessmentController(assessmentService service.AssessmentService) *AdminAssessmentController {
	return &AdminAssessmentController{assessmentService: assessmentService}
}

// CreateAssessment godoc
// @Summary (Admin) Create an assessment
// @Description Creates an assessment together with its questions and their choices.
// @Description CHOICE and MULTIPLE_CHOICE questions need at least one choice; TEXT questions take none.
// @Tags Admin - Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assessment body dto.AssessmentCreateDTO true "Assessment with questions"
// @Success 201 {object} dto.AssessmentResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input (unknown question type, bad choices)"
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/assessments [post]
func (c *AdminAssessmentController) CreateAssessment(ctx *gin.Context) {
	var req dto.AssessmentCreateDTO
	if !controller.BindJSON(ctx, &req) {
		return
	}
	resp, err := c.assessmentService.Create(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	log.Info().Uint("assessmentID", resp.ID).Int("questions", len(resp.Questions)).Msg("assessment created")
	ctx.JSON(http.StatusCreated, resp)
}

// DeleteAssessment godoc
// @Summary (Admin) Delete an assessment
// @Description Removes the assessment, its questions and choices, and every submission made against it.
// @Tags Admin - Assessments
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /admin/assessments/{id} [delete]
func (c *AdminAssessmentController) DeleteAssessment(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.assessmentService.Delete(ctx.Request.Context(), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// DeleteQuestion godoc
// @Summary (Admin) Delete a question
// @Description Removes the question with its choices and the answers given to it.
// @Tags Admin - Assessments
// @Security BearerAuth
// @Param id path int true "Question ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /admin/questions/{id} [delete]
func (c *AdminAssessmentController) DeleteQuestion(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.assessmentService.DeleteQuestion(ctx.Request.Context(), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
