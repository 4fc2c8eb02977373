package background

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gitee.com/czyczk/medivault-sdk/internal/blobstore"
	"github.com/stretchr/testify/assert"
)

// newFakePublisher 启动一个假发布端点，返回其 URL 与收到的钉札请求计数。
func newFakePublisher(t *testing.T) (string, *int64) {
	var numPins int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/add", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"Name":"blob","Hash":"QmTestRef","Size":"16"}`)
	})
	mux.HandleFunc("/api/v0/pin/add", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&numPins, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"Pins":["QmTestRef"]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL, &numPins
}

func TestPinServerReinforcesSubmittedUploads(t *testing.T) {
	primaryURL, primaryPins := newFakePublisher(t)
	extraURL, extraPins := newFakePublisher(t)

	relay, err := blobstore.NewUploadRelay([]string{primaryURL, extraURL}, 10, 5, 5*time.Second)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	server := NewPinServer(relay, 2, 16)
	err = server.Start()
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 主写入成功即返回，加固由后台工作单元补上
	ref, err := relay.Submit(context.Background(), []byte("opaque payload"))
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isEqual := assert.Equal(t, "QmTestRef", ref); !isEqual {
		t.FailNow()
	}

	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt64(extraPins) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if isEqual := assert.EqualValues(t, 1, atomic.LoadInt64(extraPins)); !isEqual {
		t.FailNow()
	}
	// 主端点只承担写入，不承担加固钉札
	if isEqual := assert.EqualValues(t, 0, atomic.LoadInt64(primaryPins)); !isEqual {
		t.FailNow()
	}

	wg, err := server.Stop()
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	wg.Wait()
}

func TestPinServerEnqueueDropsWhenQueueIsFull(t *testing.T) {
	primaryURL, _ := newFakePublisher(t)

	relay, err := blobstore.NewUploadRelay([]string{primaryURL}, 10, 5, 5*time.Second)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 不启动工作单元，队列容量即全部缓冲
	server := NewPinServer(relay, 1, 1)

	if isTrue := assert.True(t, server.Enqueue("QmTestRef")); !isTrue {
		t.FailNow()
	}
	if isFalse := assert.False(t, server.Enqueue("QmTestRef")); !isFalse {
		t.FailNow()
	}
}

func TestPinServerRejectsDoubleStart(t *testing.T) {
	primaryURL, _ := newFakePublisher(t)

	relay, err := blobstore.NewUploadRelay([]string{primaryURL}, 10, 5, 5*time.Second)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	server := NewPinServer(relay, 1, 1)
	err = server.Start()
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	err = server.Start()
	if isError := assert.Error(t, err); !isError {
		t.FailNow()
	}

	wg, err := server.Stop()
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	wg.Wait()
}
