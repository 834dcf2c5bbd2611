package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-app/lectern/internal/config"
	"github.com/lectern-app/lectern/internal/database"
	"github.com/lectern-app/lectern/internal/entities"
)

func setupAuthTest(t *testing.T, mode config.AuthMode) (*gin.Engine, *database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_auth_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	middleware := NewMiddleware(db, mode)

	router := gin.New()
	router.Use(middleware.Handler())
	router.GET("/whoami", middleware.RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})
	router.POST("/admin", middleware.RequireAdmin("add books"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, db, cleanup
}

func TestMiddleware_NoneModeInjectsDefaultUser(t *testing.T) {
	router, _, cleanup := setupAuthTest(t, config.AuthModeNone)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":0`)
}

func TestMiddleware_NoneModeSkipsAdminCheck(t *testing.T) {
	router, _, cleanup := setupAuthTest(t, config.AuthModeNone)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/admin", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_TokenModeRequiresAuth(t *testing.T) {
	router, _, cleanup := setupAuthTest(t, config.AuthModeToken)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_TokenModeResolvesBearerToken(t *testing.T) {
	router, db, cleanup := setupAuthTest(t, config.AuthModeToken)
	defer cleanup()

	user, err := db.CreateUser("Reader", "reader", "", "reader@example.com", entities.RoleUser)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+user.Token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"user"`)
}

func TestMiddleware_InvalidTokenIsAnonymous(t *testing.T) {
	router, _, cleanup := setupAuthTest(t, config.AuthModeToken)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_NonAdminGets403WithDetail(t *testing.T) {
	router, db, cleanup := setupAuthTest(t, config.AuthModeToken)
	defer cleanup()

	user, err := db.CreateUser("Reader", "reader", "", "reader@example.com", entities.RoleUser)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+user.Token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Only admin users can add books.")
}

func TestMiddleware_AdminPassesAdminCheck(t *testing.T) {
	router, db, cleanup := setupAuthTest(t, config.AuthModeToken)
	defer cleanup()

	admin, err := db.CreateUser("Admin", "admin", "", "admin@example.com", entities.RoleAdmin)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin.Token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
