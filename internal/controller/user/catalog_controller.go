package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/internal/controller"
	"github.com/lshigami/Materia/internal/service"
)

// CatalogController serves the read side of tags and prices.
type CatalogController struct {
	tagService   service.TagService
	priceService service.PriceService
}

func NewCatalogController(tagService service.TagService, priceService service.PriceService) *CatalogController {
	return &CatalogController{tagService: tagService, priceService: priceService}
}

// ListTags godoc
// @Summary List tags
// @Tags Catalog
// @Produce json
// @Success 200 {array} dto.TagView
// @Router /tags [get]
func (c *CatalogController) ListTags(ctx *gin.Context) {
	tags, err := c.tagService.List(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tags)
}

// GetTag godoc
// @Summary Get a tag
// @Tags Catalog
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} dto.TagView
// @Failure 404 {object} dto.ErrorResponse "Tag not found"
// @Router /tags/{id} [get]
func (c *CatalogController) GetTag(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	tag, err := c.tagService.Get(ctx.Request.Context(), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tag)
}

// ListPrices godoc
// @Summary List prices
// @Tags Catalog
// @Produce json
// @Success 200 {array} dto.PriceView
// @Router /prices [get]
func (c *CatalogController) ListPrices(ctx *gin.Context) {
	prices, err := c.priceService.List(ctx.Request.Context())
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, prices)
}
