package server

import (
	"context"
	"encoding/json"

	"property-billing/internal/biz"
	"property-billing/internal/conf"
	billingErrors "property-billing/internal/errors"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/go-kratos/kratos/v2/log"
)

// ReadingBiller 按抄表消息出账
type ReadingBiller interface {
	CreateBillsFromReadings(ctx context.Context, events []*biz.MeterReadingEvent) (*biz.BatchResult, error)
}

// MQConsumerServer 消费抄表消息，按用量生成账单
type MQConsumerServer struct {
	c       rocketmq.PushConsumer
	biller  ReadingBiller
	conf    *conf.Data_RocketMQ
	log     *log.Helper
	enabled bool
}

// NewMQConsumerServer creates a RocketMQ consumer server
func NewMQConsumerServer(c *conf.Bootstrap, bills *biz.BillUseCase, logger log.Logger) *MQConsumerServer {
	helper := log.NewHelper(logger)
	if c.Data == nil || c.Data.Rocketmq == nil || !c.Data.Rocketmq.Enabled {
		return &MQConsumerServer{enabled: false, log: helper}
	}
	mq := c.Data.Rocketmq

	r, err := rocketmq.NewPushConsumer(
		consumer.WithNsResolver(primitive.NewPassthroughResolver(mq.NameServers)),
		consumer.WithGroupName(mq.GroupName),
		consumer.WithRetry(int(mq.RetryTimes)),
		consumer.WithConsumeMessageBatchMaxSize(100),
	)
	if err != nil {
		helper.Errorf("init consumer error: %v", err)
		return &MQConsumerServer{enabled: false, log: helper}
	}

	return &MQConsumerServer{
		c:       r,
		biller:  bills,
		conf:    mq,
		log:     helper,
		enabled: true,
	}
}

// Start starts the consumer
func (s *MQConsumerServer) Start(ctx context.Context) error {
	if !s.enabled {
		s.log.Infof("MQConsumerServer is disabled, skipping startup")
		return nil
	}

	if s.c == nil {
		s.log.Warnf("MQConsumerServer consumer is nil, skipping startup")
		return nil
	}

	s.log.Infof("Starting MQConsumerServer, topic: %s", s.conf.Topic)

	err := s.c.Subscribe(s.conf.Topic, consumer.MessageSelector{}, s.handler)
	if err != nil {
		s.log.Errorf("Failed to subscribe to topic %s: %v", s.conf.Topic, err)
		// 不返回错误，RocketMQ 不可用时仍可通过 HTTP 出账
		return nil
	}

	if err := s.c.Start(); err != nil {
		s.log.Errorf("Failed to start RocketMQ consumer: %v", err)
		return nil
	}

	return nil
}

// Stop stops the consumer
func (s *MQConsumerServer) Stop(ctx context.Context) error {
	if !s.enabled || s.c == nil {
		return nil
	}
	s.log.Info("Stopping MQConsumerServer")
	return s.c.Shutdown()
}

func (s *MQConsumerServer) handler(ctx context.Context, msgs ...*primitive.MessageExt) (consumer.ConsumeResult, error) {
	events := decodeReadings(s.log, msgs)
	if len(events) == 0 {
		return consumer.ConsumeSuccess, nil
	}

	result, err := s.biller.CreateBillsFromReadings(ctx, events)
	if err != nil {
		s.log.Errorf("CreateBillsFromReadings failed: %v", err)
		return consumer.ConsumeRetryLater, nil
	}
	retry := false
	for _, f := range result.Failures {
		// 参数类错误重投也不会成功，只记录；存储错误稍后重试（已出账的消息重投时跳过）
		if billingErrors.IsValidation(f.Err) {
			s.log.Warnf("METER_READING_REJECTED: resident_id=%s, reason=%s", f.ID, f.Message)
			continue
		}
		retry = true
	}
	s.log.Infof("METER_READINGS_CONSUMED: messages=%d, created=%d, skipped=%d, failed=%d",
		len(msgs), len(result.Created), result.Skipped, len(result.Failures))
	if retry {
		return consumer.ConsumeRetryLater, nil
	}
	return consumer.ConsumeSuccess, nil
}

// decodeReadings 解析消息体，无法解析的消息丢弃
func decodeReadings(logger *log.Helper, msgs []*primitive.MessageExt) []*biz.MeterReadingEvent {
	events := make([]*biz.MeterReadingEvent, 0, len(msgs))
	for _, msg := range msgs {
		var event biz.MeterReadingEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			logger.Errorf("Unmarshal message failed: %v, body: %s", err, string(msg.Body))
			continue
		}
		if event.ReadingID == "" {
			event.ReadingID = msg.MsgId
		}
		events = append(events, &event)
	}
	return events
}
