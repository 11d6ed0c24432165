package util

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/errors"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	RespondWithError(c, err)
	return w
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apierrors.ValidationError("title", "title is required"), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"not found", apierrors.NotFound("story"), http.StatusNotFound, "NOT_FOUND"},
		{"wrapped", wrap(apierrors.Forbidden("nope")), http.StatusForbidden, "FORBIDDEN"},
		{"plain", stderrors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := respond(tt.err)
			assert.Equal(t, tt.status, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestDependencyDetailsStayServerSide(t *testing.T) {
	w := respond(apierrors.Dependency("storage", stderrors.New("s3: access denied for bucket x")))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "bucket x")
}

func TestPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	assert.Nil(t, Principal(c))
	_, ok := RequirePrincipal(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	SetPrincipal(c2, &identity.Principal{UserID: "u-1"})
	p, ok := RequirePrincipal(c2)
	require.True(t, ok)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, "u-1", c2.GetString("user_id"))
}

func TestParsers(t *testing.T) {
	assert.Equal(t, 7, ParseInt(" 7 ", 30))
	assert.Equal(t, 30, ParseInt("seven", 30))
	assert.True(t, ParseBool("", true))
	assert.Equal(t, []string{"a", "b"}, SplitList("a, ,b,"))
	assert.Nil(t, SplitList(""))
}

func wrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "handler: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }
