package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"twitter-clone/internal/domain"
)

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Fullname  string `json:"fullname"`
	Confirmed bool   `json:"confirmed"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UserDetailResponse is a user with the posts relation expanded.
type UserDetailResponse struct {
	UserResponse
	Posts []PostResponse `json:"posts"`
}

type TokenResponse struct {
	UserResponse
	Token string `json:"token"`
}

type PostResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type FieldError struct {
	Field   string `json:"field,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

// internalError logs err and answers with a generic 500.
func (h *Handler) internalError(c *gin.Context, err error) {
	h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	fail(c, http.StatusInternalServerError, "internal server error")
}

func validationErrors(err error, req any) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: "invalid request body"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   jsonFieldName(req, fe.StructField()),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func jsonFieldName(req any, structField string) string {
	t := reflect.TypeOf(req)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(structField); ok {
		if name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]; name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(structField)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "excludesall":
		return fmt.Sprintf("must not contain any of %q", fe.Param())
	case "eqfield":
		return "passwords do not match"
	default:
		return "is invalid"
	}
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Fullname:  user.Fullname,
		Confirmed: user.Confirmed,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func userToDetailResponse(user domain.User) UserDetailResponse {
	resp := UserDetailResponse{
		UserResponse: userToResponse(user),
		Posts:        make([]PostResponse, len(user.Posts)),
	}
	for i := range user.Posts {
		resp.Posts[i] = PostResponse{
			ID:        user.Posts[i].ID,
			Text:      user.Posts[i].Text,
			CreatedAt: user.Posts[i].CreatedAt.Format(time.RFC3339),
		}
	}
	return resp
}
