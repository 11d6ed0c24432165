package handlers

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags and makes binding
// errors report JSON field names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("reactiontype", func(fl validator.FieldLevel) bool {
			return models.IsValidReactionType(strings.ToUpper(fl.Field().String()))
		})
		_ = v.RegisterValidation("commentstatus", func(fl validator.FieldLevel) bool {
			return models.IsValidCommentStatus(strings.ToUpper(fl.Field().String()))
		})
	})
}

// bind decodes the JSON body into dest and classifies failures: malformed
// JSON is BAD_REQUEST, failed rules are VALIDATION_ERROR on the first field.
func bind(c *gin.Context, dest interface{}) error {
	err := c.ShouldBindJSON(dest)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apierrors.ValidationError(fe.Field(), validationMessage(fe))
	}
	return apierrors.BadRequest("request body is not valid JSON")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "reactiontype":
		return "reaction type must be one of " + strings.Join(models.ReactionTypes, ", ")
	case "commentstatus":
		return "status must be PENDING, APPROVED, REJECTED or SPAM"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "hexcolor":
		return fe.Field() + " must be a hex colour"
	default:
		return fe.Field() + " is not valid"
	}
}
