package ai

import "context"

// AI: внешний текстовый сервис, не знает ни про WhatsApp, ни про очередь
type AI interface {
	GetReply(
		ctx context.Context,
		systemPrompt string,
		userPrompt string,
	) (string, error)
}

// DefaultSystemPrompt is sent as the system message on every call.
const DefaultSystemPrompt = "You are a helpful assistant."
