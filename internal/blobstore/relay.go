package blobstore

import (
	"bytes"
	"context"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultUploadTimeout 为单次上传调用的默认超时时限。
const DefaultUploadTimeout = 30 * time.Second

// UploadRelay 把原始的存储节点写入挡在调用方之外：调用方只管提交负载，
// 中继负责在发布端点间轮换重试，并按小费预算决定额外在多少个节点上
// 钉住该内容以激励尽快收录。
type UploadRelay struct {
	publishers    []*endpoint
	tipBudget     int64 // 单次写入的小费预算上限
	tipPerPin     int64 // 每多钉住一个节点花费的小费
	uploadTimeout time.Duration
	pinEnqueue    func(ref string) bool // 可选的异步钉札队列（见 internal/background）
}

// NewUploadRelay 用发布端点地址列表与小费参数构造上传中继。
func NewUploadRelay(publisherURLs []string, tipBudget int64, tipPerPin int64, uploadTimeout time.Duration) (*UploadRelay, error) {
	if len(publisherURLs) == 0 {
		return nil, errors.New("至少需要一个发布端点")
	}

	if tipPerPin <= 0 {
		return nil, errors.New("tipPerPin 必须为正数")
	}

	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}

	publishers := make([]*endpoint, 0, len(publisherURLs))
	for _, url := range publisherURLs {
		publishers = append(publishers, &endpoint{url: url, sh: shell.NewShell(url)})
	}

	return &UploadRelay{
		publishers:    publishers,
		tipBudget:     tipBudget,
		tipPerPin:     tipPerPin,
		uploadTimeout: uploadTimeout,
	}, nil
}

// SetPinEnqueue 挂接异步钉札队列。挂接后 `Submit` 不再内联加固，
// 而是把引用交给后台工作单元处理。
func (r *UploadRelay) SetPinEnqueue(enqueue func(ref string) bool) {
	r.pinEnqueue = enqueue
}

// ExtraReplicas 返回小费预算允许的额外副本数。
func (r *UploadRelay) ExtraReplicas() int {
	allowed := int(r.tipBudget / r.tipPerPin)
	if max := len(r.publishers) - 1; allowed > max {
		allowed = max
	}
	if allowed < 0 {
		allowed = 0
	}
	return allowed
}

// Submit 上传负载并返回其内容寻址引用。主写入在发布端点间轮换：
// 暂时性失败换下一个端点，预期外的失败立即向上抛出。
func (r *UploadRelay) Submit(ctx context.Context, payload []byte) (string, error) {
	timeout := r.uploadTimeout
	// 大负载放宽超时
	if len(payload) > 1073741824 {
		timeout = 2 * r.uploadTimeout
	}

	var lastErr error
	ref := ""

	for _, publisher := range r.publishers {
		if err := ctx.Err(); err != nil {
			return "", classify("put", publisher.url, err)
		}

		publisher.sh.SetTimeout(timeout)
		cid, err := publisher.sh.Add(bytes.NewReader(payload))
		if err == nil {
			ref = cid
			break
		}

		storageErr := classify("put", publisher.url, err)
		if storageErr.Kind == KindUnexpected {
			log.Errorf("上传时在发布端点 %v 上发生预期外的错误: %v", publisher.url, err)
			return "", storageErr
		}

		log.Debugf("发布端点 %v 暂时不可用，换下一个端点: %v", publisher.url, err)
		lastErr = storageErr
	}

	if ref == "" {
		return "", lastErr
	}

	if r.pinEnqueue != nil {
		if !r.pinEnqueue(ref) {
			log.Warnf("钉札队列已满，引用 %v 的副本加固被放弃", ref)
		}
	} else {
		r.ReinforcePin(ref)
	}

	return ref, nil
}

// ReinforcePin 在小费预算允许的额外发布端点上钉住该引用。加固失败只记录
// 日志：主写入已经成功，副本数量不影响调用方语义。
func (r *UploadRelay) ReinforcePin(ref string) {
	replicas := r.ExtraReplicas()

	pinned := 0
	for _, publisher := range r.publishers[1:] {
		if pinned >= replicas {
			break
		}

		publisher.sh.SetTimeout(r.uploadTimeout)
		if err := publisher.sh.Pin(ref); err != nil {
			log.Debugf("在端点 %v 上钉住 %v 失败: %v", publisher.url, ref, err)
			continue
		}
		pinned++
	}

	if pinned > 0 {
		log.Debugf("引用 %v 已在 %v 个额外端点上钉住，花费小费 %v", ref, pinned, int64(pinned)*r.tipPerPin)
	}
}
