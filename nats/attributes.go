package nats

import (
	"strconv"

	"github.com/arloliu/activity"
)

// Messaging system identifier for NATS.
const messagingSystem = "nats"

// Tag keys following OTel messaging semantic conventions.
const (
	attrMessagingSystem          = "messaging.system"
	attrMessagingOperationName   = "messaging.operation.name"
	attrMessagingOperationType   = "messaging.operation.type"
	attrMessagingDestinationName = "messaging.destination.name"
	attrMessagingConsumerGroup   = "messaging.consumer.group.name"
	attrMessagingMessageID       = "messaging.message.id"
	attrMessagingMessageBodySize = "messaging.message.body.size"
	attrNATSStream               = "nats.stream"
)

// Operation types per OTel messaging semantic conventions.
const (
	opTypePublish = "publish"
	opTypeReceive = "receive"
	opTypeProcess = "process"
	opTypeSend    = "send"
)

// publishTags tags a publish scope.
func publishTags(scope *activity.Scope, subject, msgID string, bodySize int) {
	scope.SetTag(attrMessagingSystem, messagingSystem)
	scope.SetTag(attrMessagingOperationName, opTypePublish)
	scope.SetTag(attrMessagingOperationType, opTypeSend)
	scope.SetTag(attrMessagingDestinationName, subject)
	optionalTags(scope, "", msgID, bodySize)
}

// receiveTags tags a receive/fetch scope.
func receiveTags(scope *activity.Scope, stream, consumerName string) {
	scope.SetTag(attrMessagingSystem, messagingSystem)
	scope.SetTag(attrMessagingOperationName, opTypeReceive)
	scope.SetTag(attrMessagingOperationType, opTypeReceive)
	scope.SetTag(attrNATSStream, stream)
	optionalTags(scope, consumerName, "", 0)
}

// processTags tags a message processing scope.
func processTags(scope *activity.Scope, stream, consumerName, subject string, bodySize int) {
	scope.SetTag(attrMessagingSystem, messagingSystem)
	scope.SetTag(attrMessagingOperationName, opTypeProcess)
	scope.SetTag(attrMessagingOperationType, opTypeProcess)
	if stream != "" {
		scope.SetTag(attrNATSStream, stream)
	}
	if subject != "" {
		scope.SetTag(attrMessagingDestinationName, subject)
	}
	optionalTags(scope, consumerName, "", bodySize)
}

func optionalTags(scope *activity.Scope, consumerName, msgID string, bodySize int) {
	if consumerName != "" {
		scope.SetTag(attrMessagingConsumerGroup, consumerName)
	}
	if msgID != "" {
		scope.SetTag(attrMessagingMessageID, msgID)
	}
	if bodySize > 0 {
		scope.SetTag(attrMessagingMessageBodySize, strconv.Itoa(bodySize))
	}
}
