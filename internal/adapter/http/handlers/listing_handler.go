package handlers

import (
	"net/http"

	"serviexpress/internal/adapter/http/dto/request"
	"serviexpress/internal/adapter/http/dto/response"
	"serviexpress/internal/adapter/http/middleware"
	"serviexpress/internal/usecase"

	"github.com/gin-gonic/gin"
)

// ListingHandler serves the paged, role-scoped listings.
type ListingHandler struct {
	usecase usecase.IListingUseCase
}

func NewListingHandler(uc usecase.IListingUseCase) *ListingHandler {
	return &ListingHandler{usecase: uc}
}

// ListServices searches services by name among those visible to the caller.
// @Summary      List services
// @Tags         services
// @Produce      json
// @Param        name  query     string  false  "Name contains (case-insensitive)"
// @Param        page  query     int     false  "Zero-based page"
// @Param        size  query     int     false  "Page size (max 100)"
// @Success      200   {object}  response.PageResponse[response.ServiceResponse]
// @Failure      400   {object}  pkg.HTTPError
// @Security     Bearer
// @Router       /services [get]
func (h *ListingHandler) ListServices(c *gin.Context) {
	var q request.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		appErr := bindingError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	page, err := h.usecase.ListServices(c.Request.Context(), middleware.ActorFrom(c), q.Name, q.PageRequest())
	if err != nil {
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPage(page, response.FromService))
}

// ListRequests lists the requests visible to the caller.
// @Summary      List requests
// @Tags         requests
// @Produce      json
// @Param        page  query     int  false  "Zero-based page"
// @Param        size  query     int  false  "Page size (max 100)"
// @Success      200   {object}  response.PageResponse[response.RequestResponse]
// @Security     Bearer
// @Router       /requests [get]
func (h *ListingHandler) ListRequests(c *gin.Context) {
	var q request.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		appErr := bindingError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	page, err := h.usecase.ListRequests(c.Request.Context(), middleware.ActorFrom(c), q.PageRequest())
	if err != nil {
		appErr := mapCatalogError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	c.JSON(http.StatusOK, response.FromPage(page, response.FromRequest))
}
