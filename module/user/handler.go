package user

import (
	"IMProject/global"
	midsec "IMProject/middleware/security"
	"IMProject/module/user/service"
	"IMProject/service/mgo"
	"IMProject/tools/errs"
	sec "IMProject/tools/security"
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	UserID string `json:"userId" binding:"required"`
	Name   string `json:"name"`
}

// HandlerLogin exchanges an identity claim for an access token.
func HandlerLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	db := mgo.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail("store unavailable"))
		return
	}
	name := req.Name
	if name == "" {
		name = req.UserID
	}

	res, err := service.Login(c.Request.Context(), db, sec.DefaultOptions(global.GetJwtSecret()), req.UserID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandlerUsers lists everyone except the caller, for the chat sidebar.
func HandlerUsers(c *gin.Context) {
	db := mgo.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail("store unavailable"))
		return
	}
	users, err := service.ListOthers(c.Request.Context(), db, midsec.CallerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, users)
}
