package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// 校验错误中使用 json 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// bindJSON 绑定并校验请求体，失败时写入 400 响应并返回 false
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		InvalidPayload(c)
		return false
	}
	respondValidationError(c, verrs[0])
	return false
}

func respondValidationError(c *gin.Context, fe validator.FieldError) {
	field := fe.Field()
	switch {
	case fe.Tag() == "required":
		MissingField(c, field)
	case fe.Tag() == "email":
		BadRequest(c, ErrCodeInvalidEmail, "invalid email address")
	case field == "password" && fe.Tag() == "min":
		BadRequest(c, ErrCodePasswordTooShort, passwordTooShortMessage)
	case field == "password" && fe.Tag() == "max":
		BadRequest(c, ErrCodePasswordTooLong, passwordTooLongMessage)
	case field == "decision":
		BadRequest(c, ErrCodeInvalidDecision, invalidDecisionMessage)
	default:
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload", gin.H{"field": field, "rule": fe.Tag()})
	}
}
