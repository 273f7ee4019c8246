package accounthandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roomrelay/internal/services/account"
)

type Handler struct {
	svc account.IAccountService
}

func New(svc account.IAccountService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
}

// @Summary		Register an account
// @Description	Stores a salted hash of the password for a new id.
// @Tags			Accounts
// @Param			body	body		CredentialsBody	true	"Credentials"
// @Success		201		{object}	RegisteredResponse
// @Failure		400		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/register [post]
func (h *Handler) register(ginCtx *gin.Context) {
	var body CredentialsBody
	if err := ginCtx.ShouldBind(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	err := h.svc.Register(ginCtx.Request.Context(), body.ID, body.Password)
	switch {
	case errors.Is(err, account.ErrUserExists):
		ginCtx.JSON(http.StatusConflict, &ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		zap.L().Error("account.register", zap.String("id", body.ID), zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: "registration failed"})
		return
	}
	ginCtx.JSON(http.StatusCreated, &RegisteredResponse{Subject: body.ID})
}

// @Summary		Log in
// @Description	Verifies credentials and returns a signed access token for /ws.
// @Tags			Accounts
// @Param			body	body		CredentialsBody	true	"Credentials"
// @Success		200		{object}	account.TokenDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		401		{object}	ErrorResponse
// @Router			/login [post]
func (h *Handler) login(ginCtx *gin.Context) {
	var body CredentialsBody
	if err := ginCtx.ShouldBind(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	dto, err := h.svc.Login(ginCtx.Request.Context(), body.ID, body.Password)
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		ginCtx.JSON(http.StatusUnauthorized, &ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		zap.L().Error("account.login", zap.String("id", body.ID), zap.Error(err))
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: "login failed"})
		return
	}
	ginCtx.JSON(http.StatusOK, dto)
}
