package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/ideahub/pkg/apperr"
)

func init() { gin.SetMode(gin.TestMode) }

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.New(apperr.KindForbidden, "you cannot rate your own idea"), http.StatusForbidden, "you cannot rate your own idea"},
		{fmt.Errorf("rate: %w", apperr.New(apperr.KindAlreadyRated, "already")), http.StatusConflict, "already"},
		{apperr.New(apperr.KindNotFound, "idea not found"), http.StatusNotFound, "idea not found"},
		{apperr.New(apperr.KindValidation, "title is required"), http.StatusBadRequest, "title is required"},
		{apperr.New(apperr.KindUnauthenticated, "invalid token"), http.StatusUnauthorized, "invalid token"},
		{errors.New("disk full"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.msg, body.Message)
	}
}

func TestSuccessWithoutBody(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Success(c, nil)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}
