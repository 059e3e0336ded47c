package registry

import (
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWatchDirLogsFailure(t *testing.T) {
	assert := assert.New(t)

	r := newRegistry(t, Config{}, new(fakeLoader))

	w, err := fsnotify.NewWatcher()
	if err != nil {
		assert.Fail(err.Error())
		return
	}
	defer w.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	missing := filepath.Join(r.cfg.Root, "missing")
	r.watchDir(w, missing, log)

	entries := logs.FilterMessage("directory not watched").All()
	if !assert.Len(entries, 1) {
		return
	}

	assert.Equal(missing, entries[0].ContextMap()["dir"])

	r.watchDir(w, r.cfg.Root, log)
	assert.Equal(1, logs.Len(), "watchable directories log nothing")
}
