package llm

import llmclient "sitegen/internal/llmClient"

// LLMClient is the provider capability the middlewares decorate.
type LLMClient = llmclient.ProviderClient
