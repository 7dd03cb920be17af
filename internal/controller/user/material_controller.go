package user

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/controller"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/repository"
	"github.com/lshigami/Materia/internal/service"
	"github.com/rs/zerolog/log"
)

type MaterialController struct {
	materialService service.MaterialService
	paginator       *controller.Paginator
}

func NewMaterialController(materialService service.MaterialService, paginator *controller.Paginator) *MaterialController {
	return &MaterialController{materialService: materialService, paginator: paginator}
}

// ListMaterials godoc
// @Summary List materials
// @Description Newest first. Filters compose with AND; several tags match ANY.
// @Tags Materials
// @Produce json
// @Param tags query []string false "Tag slug, repeatable" collectionFormat(multi)
// @Param author query int false "Author ID"
// @Param is_favorited query string false "1, 0, true or false"
// @Param is_in_shopping_cart query string false "1, 0, true or false"
// @Param page query int false "Page number (>=1)"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.Paginated[dto.MaterialView]
// @Failure 400 {object} dto.ErrorResponse "Invalid filter or pagination"
// @Router /materials [get]
func (c *MaterialController) ListMaterials(ctx *gin.Context) {
	page, err := c.paginator.Parse(ctx)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	filter, err := parseMaterialFilter(ctx)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	materials, total, err := c.materialService.List(ctx.Request.Context(), controller.Viewer(ctx), filter, page)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, controller.Paginate(ctx, page, total, materials))
}

func parseMaterialFilter(ctx *gin.Context) (repository.MaterialFilter, error) {
	var filter repository.MaterialFilter
	for _, slug := range ctx.QueryArray("tags") {
		if slug != "" {
			filter.TagSlugs = append(filter.TagSlugs, slug)
		}
	}
	if raw := ctx.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return filter, apperr.Validation("author", "%q is not a valid id", raw)
		}
		author := uint(id)
		filter.AuthorID = &author
	}
	var err error
	if filter.IsFavorited, err = controller.ParseOptionalBool(ctx, "is_favorited"); err != nil {
		return filter, err
	}
	if filter.IsInShoppingCart, err = controller.ParseOptionalBool(ctx, "is_in_shopping_cart"); err != nil {
		return filter, err
	}
	return filter, nil
}

// CreateMaterial godoc
// @Summary Publish a material
// @Description The current user becomes the author; pub_date is set by the server.
// @Tags Materials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param material body dto.CreateMaterialRequest true "Material"
// @Success 201 {object} dto.MaterialView
// @Failure 400 {object} dto.ErrorResponse "Invalid input or unknown tag/price id"
// @Failure 401 {object} dto.ErrorResponse
// @Router /materials [post]
func (c *MaterialController) CreateMaterial(ctx *gin.Context) {
	var req dto.CreateMaterialRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	material, err := c.materialService.Create(ctx.Request.Context(), controller.Viewer(ctx), req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	log.Info().Uint("materialID", material.ID).Uint("authorID", material.Author.ID).Msg("material created")
	ctx.JSON(http.StatusCreated, material)
}

// GetMaterial godoc
// @Summary Get a material
// @Tags Materials
// @Produce json
// @Param id path int true "Material ID"
// @Success 200 {object} dto.MaterialView
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Router /materials/{id} [get]
func (c *MaterialController) GetMaterial(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	material, err := c.materialService.Get(ctx.Request.Context(), controller.Viewer(ctx), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, material)
}

// UpdateMaterial godoc
// @Summary Update a material
// @Description Partial update by the author or an admin. Tags and prices, when sent, replace the current ones.
// @Tags Materials
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Param material body dto.UpdateMaterialRequest true "Fields to change"
// @Success 200 {object} dto.MaterialView
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Router /materials/{id} [patch]
func (c *MaterialController) UpdateMaterial(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateMaterialRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	material, err := c.materialService.Update(ctx.Request.Context(), controller.Viewer(ctx), id, req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, material)
}

// DeleteMaterial godoc
// @Summary Delete a material
// @Tags Materials
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Router /materials/{id} [delete]
func (c *MaterialController) DeleteMaterial(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.materialService.Delete(ctx.Request.Context(), controller.Viewer(ctx), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Favorite godoc
// @Summary Add a material to favorites
// @Tags Favorites
// @Produce json
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 201 {object} dto.MaterialSummary
// @Failure 400 {object} dto.ErrorResponse "Already in favorites"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Router /materials/{id}/favorite [post]
func (c *MaterialController) Favorite(ctx *gin.Context) {
	c.addRelation(ctx, c.materialService.Favorite)
}

// Unfavorite godoc
// @Summary Remove a material from favorites
// @Tags Favorites
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Router /materials/{id}/favorite [delete]
func (c *MaterialController) Unfavorite(ctx *gin.Context) {
	c.removeRelation(ctx, c.materialService.Unfavorite)
}

// AddToCart godoc
// @Summary Add a material to the shopping cart
// @Tags Shopping cart
// @Produce json
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 201 {object} dto.MaterialSummary
// @Failure 400 {object} dto.ErrorResponse "Already in the shopping cart"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Router /materials/{id}/shopping_cart [post]
func (c *MaterialController) AddToCart(ctx *gin.Context) {
	c.addRelation(ctx, c.materialService.AddToCart)
}

// RemoveFromCart godoc
// @Summary Remove a material from the shopping cart
// @Tags Shopping cart
// @Security BearerAuth
// @Param id path int true "Material ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Material not found"
// @Router /materials/{id}/shopping_cart [delete]
func (c *MaterialController) RemoveFromCart(ctx *gin.Context) {
	c.removeRelation(ctx, c.materialService.RemoveFromCart)
}

// Cart godoc
// @Summary Current user's shopping cart
// @Tags Shopping cart
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.MaterialSummary
// @Failure 401 {object} dto.ErrorResponse
// @Router /materials/shopping_cart [get]
func (c *MaterialController) Cart(ctx *gin.Context) {
	items, err := c.materialService.Cart(ctx.Request.Context(), controller.Viewer(ctx))
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, items)
}

type addFunc func(ctx context.Context, viewer *auth.Viewer, id uint) (*dto.MaterialSummary, error)

type removeFunc func(ctx context.Context, viewer *auth.Viewer, id uint) error

func (c *MaterialController) addRelation(ctx *gin.Context, add addFunc) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	summary, err := add(ctx.Request.Context(), controller.Viewer(ctx), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, summary)
}

func (c *MaterialController) removeRelation(ctx *gin.Context, remove removeFunc) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	if err := remove(ctx.Request.Context(), controller.Viewer(ctx), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
