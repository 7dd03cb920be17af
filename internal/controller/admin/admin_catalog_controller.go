package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/internal/controller"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/service"
	"github.com/rs/zerolog/log"
)

// AdminCatalogController manages the tag and price dictionaries.
type AdminCatalogController struct {
	tagService   service.TagService
	priceService service.PriceService
}

func NewAdminCatalogController(tagService service.TagService, priceService service.PriceService) *AdminCatalogController {
	return &AdminCatalogController{tagService: tagService, priceService: priceService}
}

// CreateTag godoc
// @Summary (Admin) Create a tag
// @Tags Admin - Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tag body dto.CreateTagRequest true "Tag title and slug"
// @Success 201 {object} dto.TagView
// @Failure 400 {object} dto.ErrorResponse "Invalid input or duplicate title/slug"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/tags [post]
func (c *AdminCatalogController) CreateTag(ctx *gin.Context) {
	var req dto.CreateTagRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	tag, err := c.tagService.Create(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	log.Info().Uint("tagID", tag.ID).Str("slug", tag.Slug).Msg("tag created")
	ctx.JSON(http.StatusCreated, tag)
}

// DeleteTag godoc
// @Summary (Admin) Delete a tag
// @Description Removes the tag and its links to materials.
// @Tags Admin - Catalog
// @Security BearerAuth
// @Param id path int true "Tag ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Tag not found"
// @Router /admin/tags/{id} [delete]
func (c *AdminCatalogController) DeleteTag(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.tagService.Delete(ctx.Request.Context(), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// CreatePrice godoc
// @Summary (Admin) Create a price
// @Tags Admin - Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param price body dto.CreatePriceRequest true "Amount (decimal string) and measurement unit"
// @Success 201 {object} dto.PriceView
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/prices [post]
func (c *AdminCatalogController) CreatePrice(ctx *gin.Context) {
	var req dto.CreatePriceRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	price, err := c.priceService.Create(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, price)
}

// DeletePrice godoc
// @Summary (Admin) Delete a price
// @Tags Admin - Catalog
// @Security BearerAuth
// @Param id path int true "Price ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse "Price not found"
// @Router /admin/prices/{id} [delete]
func (c *AdminCatalogController) DeletePrice(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.priceService.Delete(ctx.Request.Context(), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
