// Package snowflake 为参考网关生成按时间递增的消息 ID
package snowflake

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"chattix/internal/config"
)

// Generator 包装 snowflake.Node，可并发调用
type Generator struct {
	node *snowflake.Node
}

// NewGenerator 创建节点，machineID 范围 0-1023
func NewGenerator(machineID int64) (*Generator, error) {
	if machineID < 0 || machineID > 1023 {
		return nil, fmt.Errorf("snowflake: machine id %d out of range [0, 1023]", machineID)
	}
	node, err := snowflake.NewNode(machineID)
	if err != nil {
		return nil, fmt.Errorf("snowflake: new node %d: %w", machineID, err)
	}
	return &Generator{node: node}, nil
}

// Next 生成下一个 ID (int64)
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

var (
	defaultGen  *Generator
	defaultOnce sync.Once
)

// Default 按配置初始化的全局节点，配置非法时使用节点 1
func Default() *Generator {
	defaultOnce.Do(func() {
		machineID := config.GetConfig().SnowflakeConfig.MachineID
		gen, err := NewGenerator(machineID)
		if err != nil {
			zap.L().Warn("invalid snowflake machine id, using 1", zap.Int64("machineID", machineID), zap.Error(err))
			gen, _ = NewGenerator(1)
		}
		defaultGen = gen
		zap.L().Info("snowflake node initialized", zap.Int64("machineID", machineID))
	})
	return defaultGen
}

// GenerateID 使用全局节点生成 ID
func GenerateID() int64 {
	return Default().Next()
}
