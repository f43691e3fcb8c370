package handlers

import (
	"log"
	"net/http"

	"serviexpress/internal/adapter/http/dto/request"
	"serviexpress/internal/adapter/http/dto/response"
	"serviexpress/internal/adapter/http/middleware"
	"serviexpress/internal/usecase"

	"github.com/gin-gonic/gin"
)

// RequestHandler handles HTTP requests for solicitudes.
type RequestHandler struct {
	usecase usecase.IRequestUseCase
}

func NewRequestHandler(uc usecase.IRequestUseCase) *RequestHandler {
	return &RequestHandler{usecase: uc}
}

// CreateRequest opens a request on an available service.
// @Summary      Create request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        request  body      request.RequestCreateRequest  true  "Request"
// @Success      201      {object}  response.RequestResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      404      {object}  pkg.HTTPError
// @Failure      409      {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var payload request.RequestCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := bindingError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	actor := middleware.ActorFrom(c)
	created, err := h.usecase.Create(c.Request.Context(), actor, payload.ToInput())
	if err != nil {
		log.Printf("[request][handler] create failed service_id=%s actor_id=%s err=%v", payload.ServiceID, actor.ID, err)
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[request][handler] create success request_id=%s service_id=%s", created.ID, created.ServiceID)

	c.JSON(http.StatusCreated, response.FromRequest(created))
}

// GetRequest returns a request visible to the caller.
// @Summary      Get request
// @Tags         requests
// @Produce      json
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  response.RequestResponse
// @Failure      404  {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.usecase.GetByID(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromRequest(req))
}

// UpdateRequest edits details, address or the estimated date.
// @Summary      Update request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Request ID"
// @Param        request  body      request.RequestUpdateRequest  true  "Fields to change"
// @Success      200      {object}  response.RequestResponse
// @Failure      400      {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /requests/{id} [patch]
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	var payload request.RequestUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := bindingError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	id := c.Param("id")
	updated, err := h.usecase.Update(c.Request.Context(), middleware.ActorFrom(c), id, payload.ToInput())
	if err != nil {
		log.Printf("[request][handler] update failed request_id=%s err=%v", id, err)
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromRequest(updated))
}

// TransitionRequest moves a request to another status. Payment statuses
// are refused here; they come from checkout and the webhook.
// @Summary      Change request status
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        id      path      string                     true  "Request ID"
// @Param        status  body      request.TransitionRequest  true  "Target status"
// @Success      200     {object}  response.TransitionResponse
// @Failure      409     {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /requests/{id}/status [patch]
func (h *RequestHandler) TransitionRequest(c *gin.Context) {
	var payload request.TransitionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := bindingError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	id := c.Param("id")
	res, err := h.usecase.Transition(c.Request.Context(), middleware.ActorFrom(c), id, payload.Target())
	if err != nil {
		log.Printf("[request][handler] transition failed request_id=%s target=%s err=%v", id, payload.Target(), err)
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[request][handler] transition success request_id=%s status=%s applied=%t", id, res.Request.Status, res.Applied)

	c.JSON(http.StatusOK, response.FromTransition(res))
}

// DeleteRequest removes a request that holds no claim.
// @Summary      Delete request
// @Tags         requests
// @Param        id  path  string  true  "Request ID"
// @Success      204
// @Failure      409  {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /requests/{id} [delete]
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	id := c.Param("id")
	if err := h.usecase.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		log.Printf("[request][handler] delete failed request_id=%s err=%v", id, err)
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.Status(http.StatusNoContent)
}
