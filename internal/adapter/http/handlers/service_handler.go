package handlers

import (
	"fmt"
	"log"
	"net/http"

	"serviexpress/internal/adapter/http/dto/request"
	"serviexpress/internal/adapter/http/dto/response"
	"serviexpress/internal/adapter/http/middleware"
	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase"
	"serviexpress/pkg"

	"github.com/gin-gonic/gin"
)

var errCatalogUnavailable = pkg.NewDomainErrorSimple("EXTERNAL_CATALOG_UNAVAILABLE", "External service catalog unavailable", http.StatusBadGateway)

// ServiceHandler handles HTTP requests for marketplace services.
type ServiceHandler struct {
	usecase usecase.IServiceUseCase
}

func NewServiceHandler(uc usecase.IServiceUseCase) *ServiceHandler {
	return &ServiceHandler{usecase: uc}
}

// CreateService lists a new service.
// @Summary      Create service
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        service  body      request.ServiceCreateRequest  true  "Service"
// @Success      201      {object}  response.ServiceResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      403      {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /services [post]
func (h *ServiceHandler) CreateService(c *gin.Context) {
	var payload request.ServiceCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := bindingError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	actor := middleware.ActorFrom(c)
	created, err := h.usecase.Create(c.Request.Context(), actor, payload.ToInput())
	if err != nil {
		log.Printf("[service][handler] create failed actor_id=%s err=%v", actor.ID, err)
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[service][handler] create success service_id=%s status=%s", created.ID, created.Status)

	c.JSON(http.StatusCreated, response.FromService(created))
}

// GetService returns a service visible to the caller.
// @Summary      Get service
// @Tags         services
// @Produce      json
// @Param        id   path      string  true  "Service ID"
// @Success      200  {object}  response.ServiceResponse
// @Failure      404  {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /services/{id} [get]
func (h *ServiceHandler) GetService(c *gin.Context) {
	svc, err := h.usecase.GetByID(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromService(svc))
}

// UpdateService applies a partial edit, status changes included.
// @Summary      Update service
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Service ID"
// @Param        service  body      request.ServiceUpdateRequest  true  "Fields to change"
// @Success      200      {object}  response.ServiceResponse
// @Failure      400      {object}  pkg.HTTPError
// @Failure      409      {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /services/{id} [patch]
func (h *ServiceHandler) UpdateService(c *gin.Context) {
	var payload request.ServiceUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		appErr := bindingError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	id := c.Param("id")
	updated, err := h.usecase.Update(c.Request.Context(), middleware.ActorFrom(c), id, payload.ToInput())
	if err != nil {
		log.Printf("[service][handler] update failed service_id=%s err=%v", id, err)
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromService(updated))
}

// DeleteService removes a service nobody requested.
// @Summary      Delete service
// @Tags         services
// @Param        id  path  string  true  "Service ID"
// @Success      204
// @Failure      409  {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /services/{id} [delete]
func (h *ServiceHandler) DeleteService(c *gin.Context) {
	id := c.Param("id")
	if err := h.usecase.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		log.Printf("[service][handler] delete failed service_id=%s err=%v", id, err)
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportService saves a service fetched from the external catalog and
// returns it as JSON.
// @Summary      Import service from the external catalog
// @Tags         services
// @Produce      json
// @Param        kind  path      string  true  "Catalog kind"
// @Success      201   {object}  response.ServiceResponse
// @Failure      502   {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /services/auto/{kind} [post]
func (h *ServiceHandler) ImportService(c *gin.Context) {
	created, appErr := h.importService(c)
	if appErr != nil {
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusCreated, response.FromService(created))
}

// ImportServiceText is the plain-text variant of ImportService.
// @Summary      Import service from the external catalog (text)
// @Tags         services
// @Produce      plain
// @Param        kind  path      string  true  "Catalog kind"
// @Success      200   {string}  string
// @Security     Bearer
// @Router       /services/auto/{kind} [get]
func (h *ServiceHandler) ImportServiceText(c *gin.Context) {
	created, appErr := h.importService(c)
	if appErr != nil {
		c.String(appErr.HTTPStatus, appErr.Message)
		return
	}
	c.String(http.StatusOK, fmt.Sprintf("Service %q saved with id %s (%s)", created.Name, created.ID, created.Status))
}

func (h *ServiceHandler) importService(c *gin.Context) (entities.Service, *pkg.AppError) {
	kind := c.Param("kind")
	created, err := h.usecase.ImportExternal(c.Request.Context(), middleware.ActorFrom(c), kind)
	if err != nil {
		log.Printf("[service][handler] import failed kind=%s err=%v", kind, err)
		appErr := mapCatalogError(err)
		if appErr.HTTPStatus == http.StatusInternalServerError {
			appErr = errCatalogUnavailable
		}
		return entities.Service{}, appErr
	}
	log.Printf("[service][handler] import success kind=%s service_id=%s", kind, created.ID)
	return created, nil
}
