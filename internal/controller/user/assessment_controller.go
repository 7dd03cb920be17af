package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/internal/controller"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/service"
	"github.com/rs/zerolog/log"
)

type AssessmentController struct {
	assessmentService service.AssessmentService
	submissionService service.SubmissionService
	paginator         *controller.Paginator
}

func NewAssessmentController(
	assessmentService service.AssessmentService,
	submissionService service.SubmissionService,
	paginator *controller.Paginator,
) *AssessmentController {
	return &AssessmentController{
		assessmentService: assessmentService,
		submissionService: submissionService,
		paginator:         paginator,
	}
}

// ListAssessments godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Param page query int false "Page number (>=1)"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.Paginated[dto.AssessmentSummaryDTO]
// @Failure 400 {object} dto.ErrorResponse "Invalid page or limit"
// @Router /assessments [get]
func (c *AssessmentController) ListAssessments(ctx *gin.Context) {
	page, err := c.paginator.Parse(ctx)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	items, total, err := c.assessmentService.List(ctx.Request.Context(), page)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, controller.Paginate(ctx, page, total, items))
}

// GetAssessment godoc
// @Summary Get an assessment with its questions
// @Tags Assessments
// @Produce json
// @Param id path int true "Assessment ID"
// @Success 200 {object} dto.AssessmentResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /assessments/{id} [get]
func (c *AssessmentController) GetAssessment(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	resp, err := c.assessmentService.Get(ctx.Request.Context(), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Submit godoc
// @Summary Submit answers to an assessment
// @Description Choice answers are checked against the question's choice indexes
// @Description (comma separated for MULTIPLE_CHOICE). TEXT answers are graded before the response is sent.
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Param submission body dto.SubmissionCreateDTO true "Answers"
// @Success 201 {object} dto.SubmissionDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid answers"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /assessments/{id}/submissions [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	assessmentID, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.SubmissionCreateDTO
	if !controller.BindJSON(ctx, &req) {
		return
	}
	log.Info().Uint("assessmentID", assessmentID).Int("answerCount", len(req.Answers)).Msg("received submission")

	detail, err := c.submissionService.Submit(ctx.Request.Context(), controller.Viewer(ctx), assessmentID, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, detail)
}

// MySubmissions godoc
// @Summary Current user's submissions for an assessment
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assessment ID"
// @Success 200 {array} dto.SubmissionSummaryDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /assessments/{id}/my-submissions [get]
func (c *AssessmentController) MySubmissions(ctx *gin.Context) {
	assessmentID, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	items, err := c.submissionService.ListMine(ctx.Request.Context(), controller.Viewer(ctx), assessmentID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}

// GetSubmission godoc
// @Summary Get a submission with answers, grades and feedback
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.SubmissionDetailDTO
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Submission not found"
// @Router /submissions/{id} [get]
func (c *AssessmentController) GetSubmission(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	detail, err := c.submissionService.Get(ctx.Request.Context(), controller.Viewer(ctx), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, detail)
}
