package fixtures

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/docker/docker/pkg/namesgenerator"
	"github.com/google/uuid"
)

var (
	randomMu sync.Mutex
	random   = rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
)

func GetRandomName(retry int) string {
	return fmt.Sprint(namesgenerator.GetRandomName(retry), "_", uuid.NewString()[:8])
}

// GenerateString returns 10 random lowercase alphanumerics.
func GenerateString() string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	randomMu.Lock()
	defer randomMu.Unlock()
	result := make([]byte, 10)
	for i := range result {
		result[i] = chars[random.Intn(len(chars))]
	}
	return string(result)
}
