package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())

	usr := user.User{ID: "u1", Name: "Devi", Email: "devi@test.test"}
	logger.Error("saving plan failed", errors.New("disk full"), usr)
	logger.Info("session opened")

	out := buf.String()
	assert.Contains(t, out, "ERROR: saving plan failed")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "INFO: session opened")
	assert.NotContains(t, out, "devi@test.test", "users are reported as persons, not printed")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{}
	usr := user.User{ID: "u1"}
	extras := map[string]interface{}{"session": "s1"}

	args := logger.prepare("msg", []interface{}{usr, extras, &usr})
	assert.Equal(t, []interface{}{"msg", extras}, args)
}
