package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/controller"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/lshigami/Materia/internal/service"
	"github.com/rs/zerolog/log"
)

type UserController struct {
	userService service.UserService
	paginator   *controller.Paginator
}

func NewUserController(userService service.UserService, paginator *controller.Paginator) *UserController {
	return &UserController{userService: userService, paginator: paginator}
}

// Register godoc
// @Summary Register a new user
// @Tags Users
// @Accept json
// @Produce json
// @Param user body dto.RegisterUserRequest true "Registration data"
// @Success 201 {object} dto.RegisteredUser
// @Failure 400 {object} dto.ErrorResponse "Invalid input or email/username taken"
// @Router /users [post]
func (c *UserController) Register(ctx *gin.Context) {
	var req dto.RegisterUserRequest
	if !controller.BindJSON(ctx, &req) {
		return
	}
	user, err := c.userService.Register(ctx.Request.Context(), req)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	log.Info().Uint("userID", user.ID).Msg("user registered")
	ctx.JSON(http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number (>=1)"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.Paginated[dto.UserView]
// @Failure 400 {object} dto.ErrorResponse "Invalid page or limit"
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	page, err := c.paginator.Parse(ctx)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	users, total, err := c.userService.List(ctx.Request.Context(), controller.Viewer(ctx), page)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, controller.Paginate(ctx, page, total, users))
}

// Me godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserView
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/me [get]
func (c *UserController) Me(ctx *gin.Context) {
	me, err := c.userService.Me(ctx.Request.Context(), controller.Viewer(ctx))
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, me)
}

// GetUser godoc
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserView
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	user, err := c.userService.Get(ctx.Request.Context(), controller.Viewer(ctx), id)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Deletes the account with its materials, favorites, cart entries, follows and submissions. Self or admin only.
// @Tags Users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.userService.Delete(ctx.Request.Context(), controller.Viewer(ctx), id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Subscriptions godoc
// @Summary Authors a user follows
// @Description Each author comes with up to materials_limit of their newest materials.
// @Tags Subscriptions
// @Produce json
// @Param id path int true "User ID"
// @Param page query int false "Page number (>=1)"
// @Param limit query int false "Page size"
// @Param materials_limit query int false "Materials per author"
// @Success 200 {object} dto.Paginated[dto.SubscriptionView]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/subscriptions [get]
func (c *UserController) Subscriptions(ctx *gin.Context) {
	id, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	c.respondSubscriptions(ctx, id)
}

// MySubscriptions godoc
// @Summary Authors the current user follows
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (>=1)"
// @Param limit query int false "Page size"
// @Param materials_limit query int false "Materials per author"
// @Success 200 {object} dto.Paginated[dto.SubscriptionView]
// @Failure 401 {object} dto.ErrorResponse
// @Router /users/me/subscriptions [get]
func (c *UserController) MySubscriptions(ctx *gin.Context) {
	viewer := controller.Viewer(ctx)
	if viewer == nil {
		controller.RespondError(ctx, apperr.Unauthorized("authentication credentials were not provided"))
		return
	}
	c.respondSubscriptions(ctx, viewer.ID)
}

func (c *UserController) respondSubscriptions(ctx *gin.Context, userID uint) {
	page, err := c.paginator.Parse(ctx)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	materialsLimit, err := controller.ParseOptionalInt(ctx, "materials_limit")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	subs, total, err := c.userService.Subscriptions(ctx.Request.Context(), controller.Viewer(ctx), userID, page, materialsLimit)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, controller.Paginate(ctx, page, total, subs))
}

// Subscribe godoc
// @Summary Follow an author
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Param materials_limit query int false "Materials to include"
// @Success 201 {object} dto.SubscriptionView
// @Failure 400 {object} dto.ErrorResponse "Self subscription or already subscribed"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Author not found"
// @Router /users/{id}/subscribe [post]
func (c *UserController) Subscribe(ctx *gin.Context) {
	authorID, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	materialsLimit, err := controller.ParseOptionalInt(ctx, "materials_limit")
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	view, err := c.userService.Subscribe(ctx.Request.Context(), controller.Viewer(ctx), authorID, materialsLimit)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, view)
}

// Unsubscribe godoc
// @Summary Unfollow an author
// @Tags Subscriptions
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse "Author not found"
// @Router /users/{id}/subscribe [delete]
func (c *UserController) Unsubscribe(ctx *gin.Context) {
	authorID, ok := controller.ParseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.userService.Unsubscribe(ctx.Request.Context(), controller.Viewer(ctx), authorID); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
