package idutils

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

var (
	sfNodeOnce sync.Once
	sfNode     *snowflake.Node
	sfNodeErr  error
)

// GenerateSnowflakeId 生成一个 snowflake ID。生成器节点在首次调用时创建并复用。
func GenerateSnowflakeId() (string, error) {
	sfNodeOnce.Do(func() {
		sfNode, sfNodeErr = snowflake.NewNode(1)
	})

	if sfNodeErr != nil {
		return "", errors.Wrap(sfNodeErr, "无法生成 ID")
	}

	return sfNode.Generate().String(), nil
}
