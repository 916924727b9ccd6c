package wallet

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWalletRouter(t *testing.T, userID int) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	h := &Handler{repo: NewRepository(sqlxDB)}

	r := gin.New()
	// Подставляем user_id так же, как это делает auth middleware
	r.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	r.GET("/wallet", h.GetBalance)
	r.GET("/wallet/transactions", h.ListTransactions)

	return r, mock
}

func TestGetBalance_Unauthenticated(t *testing.T) {
	r, _ := setupWalletRouter(t, 0)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetBalance_ReturnsWallet(t *testing.T) {
	r, mock := setupWalletRouter(t, 3)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM wallets WHERE user_id = $1")).
		WithArgs(3).
		WillReturnRows(walletRow(1, 3, 750, 250, 0))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balance":750`)
	assert.Contains(t, w.Body.String(), `"currency":"NestCoin"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactions_UsesLimitAndOffset(t *testing.T) {
	r, mock := setupWalletRouter(t, 3)

	rows := sqlmock.NewRows([]string{
		"id", "wallet_id", "user_id", "amount", "type", "status",
		"idempotency_key", "description", "balance_after", "created_at",
	})
	mock.ExpectQuery("SELECT \\* FROM transactions WHERE user_id = \\$1").
		WithArgs(3, 5, 10).
		WillReturnRows(rows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/wallet/transactions?limit=5&offset=10", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
