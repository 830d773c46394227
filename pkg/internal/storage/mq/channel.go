// Package mq 提供进程内 GoChannel 消息队列实现.
// channel 类型不依赖外部服务，适合单机部署和测试场景.
package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/uachado/uachado/pkg/configs"
)

const defaultChannelBufferSize = 64

// init 注册进程内 GoChannel 工厂.
func init() {
	RegisterFactory(configs.MQTypeChannel, channelFactory)
}

// channelFactory 创建 GoChannel Publisher & Subscriber（同一个实例承担两个角色）.
func channelFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: defaultChannelBufferSize,
	}, logger)

	return pubSub, pubSub, nil
}
