package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/edutrack-service/internal/service"
	"github.com/maxviazov/edutrack-service/pkg/response"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(r gin.IRoutes) {
	r.GET(UsersPath, h.list)
}

func (h *UserHandler) list(c *gin.Context) {
	var (
		q     service.UserListQuery
		ferrs []service.FieldError
	)
	if v, ok, err := intQuery(c, "skip"); err != nil {
		ferrs = append(ferrs, service.FieldError{Field: "skip", Message: "must be an integer"})
	} else if ok {
		q.Skip = &v
	}
	if v, ok, err := intQuery(c, "limit"); err != nil {
		ferrs = append(ferrs, service.FieldError{Field: "limit", Message: "must be an integer"})
	} else if ok {
		q.Limit = &v
	}
	if err := service.NewInvalidInput(ferrs); err != nil {
		response.WriteError(c, err)
		return
	}

	users, err := h.svc.ListUsers(c.Request.Context(), q)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, users)
}

// intQuery reports whether key was supplied and, if so, its integer value.
func intQuery(c *gin.Context, key string) (int, bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}
