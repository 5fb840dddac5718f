package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nutriscan/testutil"
	"nutriscan/utils"

	"github.com/gin-gonic/gin"
)

func authRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OptionalAuth(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})
	r.GET("/mine", RequireUser(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func get(r http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOptionalAuth_WithSecret(t *testing.T) {
	r := authRouter("s3cret")
	tok, err := utils.GenerateJWT("user-7", "s3cret", time.Hour)
	testutil.AssertNoError(t, err)

	w := get(r, "/whoami", "")
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertEqual(t, w.Body.String(), "")

	w = get(r, "/whoami", "Bearer "+tok)
	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertEqual(t, w.Body.String(), "user-7")

	w = get(r, "/whoami", "Bearer garbage")
	testutil.AssertEqual(t, w.Code, http.StatusUnauthorized)

	w = get(r, "/whoami", "Token "+tok)
	testutil.AssertEqual(t, w.Code, http.StatusUnauthorized)
}

func TestOptionalAuth_NoSecretIsAnonymous(t *testing.T) {
	r := authRouter("")
	tok, err := utils.GenerateJWT("user-7", "s3cret", time.Hour)
	testutil.AssertNoError(t, err)

	for _, header := range []string{"", "Bearer " + tok, "Bearer garbage", "Basic dTpw"} {
		w := get(r, "/whoami", header)
		testutil.AssertEqual(t, w.Code, http.StatusOK)
		testutil.AssertEqual(t, w.Body.String(), "")
	}

	w := get(r, "/mine", "Bearer "+tok)
	testutil.AssertEqual(t, w.Code, http.StatusUnauthorized)
}
