package payment

import (
	"os"
	"testing"

	"github.com/reosaurous172214/NovelNest-Backend/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}
