// Package blobstore 实现对内容寻址块存储网络的弹性读写。
//
// 读取从一组等价的聚合端点中选取，暂时性失败换端点重试；写入经由上传中继
// （见 relay.go），由一笔有界的"小费"预算激励节点尽快收录。同一内容的引用
// 是内容导出的、可复现的；写入是只增的，内容变化即产生新引用。
package blobstore

import (
	"context"
	"io/ioutil"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultReadTimeout 为单次读取调用的默认超时时限。
const DefaultReadTimeout = 60 * time.Second

// Store 为块存储客户端的能力接口，便于上层以注入方式替换实现。
type Store interface {
	// Put 上传一段不透明的字节负载，返回其内容寻址引用。
	Put(ctx context.Context, payload []byte) (string, error)
	// Get 按引用读取字节负载。
	Get(ctx context.Context, ref string) ([]byte, error)
}

type endpoint struct {
	url string
	sh  *shell.Shell
}

// Client 为 `Store` 的默认实现：读端点池 + 上传中继。
type Client struct {
	aggregators []*endpoint
	relay       *UploadRelay
	readTimeout time.Duration
}

// NewClient 用聚合端点地址列表与上传中继构造块存储客户端。
func NewClient(aggregatorURLs []string, relay *UploadRelay, readTimeout time.Duration) (*Client, error) {
	if len(aggregatorURLs) == 0 {
		return nil, errors.New("至少需要一个聚合端点")
	}

	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	aggregators := make([]*endpoint, 0, len(aggregatorURLs))
	for _, url := range aggregatorURLs {
		aggregators = append(aggregators, &endpoint{url: url, sh: shell.NewShell(url)})
	}

	return &Client{
		aggregators: aggregators,
		relay:       relay,
		readTimeout: readTimeout,
	}, nil
}

// Put 经由上传中继写入负载。
func (c *Client) Put(ctx context.Context, payload []byte) (string, error) {
	if c.relay == nil {
		return "", errors.New("客户端未配置上传中继")
	}

	return c.relay.Submit(ctx, payload)
}

// Get 按引用读取负载。对每个聚合端点依次尝试；暂时性失败记录日志后换下一个
// 端点，预期外的失败立即向上抛出。所有端点都只给出暂时性失败时，返回最后
// 一个带类别的错误。
func (c *Client) Get(ctx context.Context, ref string) ([]byte, error) {
	var lastErr error

	for _, aggregator := range c.aggregators {
		if err := ctx.Err(); err != nil {
			return nil, classify("get", aggregator.url, err)
		}

		payload, err := c.getFromEndpoint(aggregator, ref)
		if err == nil {
			return payload, nil
		}

		storageErr := classify("get", aggregator.url, err)
		if storageErr.Kind == KindUnexpected {
			log.Errorf("读取 %v 时在端点 %v 上发生预期外的错误: %v", ref, aggregator.url, err)
			return nil, storageErr
		}

		log.Debugf("端点 %v 暂时无法提供 %v，换下一个端点: %v", aggregator.url, ref, err)
		lastErr = storageErr
	}

	return nil, lastErr
}

func (c *Client) getFromEndpoint(aggregator *endpoint, ref string) ([]byte, error) {
	aggregator.sh.SetTimeout(c.readTimeout)

	reader, err := aggregator.sh.Cat(ref)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	payload, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	return payload, nil
}
