package chat

// Static lookup tables mapping client-facing model and agent keys to
// provider model strings, per-message credit costs, and system prompts.
// Unknown keys fall back to the defaults so stale client state keeps the
// chat usable instead of failing.

// BaseMessageCost is charged on every turn on top of the model cost.
const BaseMessageCost int64 = 1

const (
	DefaultModelKey = "GPT4"
	DefaultAgentKey = "GENERAL"
)

type ModelInfo struct {
	ProviderModel string `json:"provider_model"`
	DisplayName   string `json:"name"`
	Cost          int64  `json:"cost"`
}

var modelCatalog = map[string]ModelInfo{
	"GPT4":    {ProviderModel: "openai/gpt-4-turbo-preview", DisplayName: "GPT-4 Turbo", Cost: 10},
	"CLAUDE":  {ProviderModel: "anthropic/claude-3-sonnet-20240229", DisplayName: "Claude 3 Sonnet", Cost: 8},
	"GEMINI":  {ProviderModel: "google/gemini-pro", DisplayName: "Gemini Pro", Cost: 5},
	"LLAMA":   {ProviderModel: "meta-llama/llama-3-70b-instruct", DisplayName: "Llama 3 70B", Cost: 3},
	"MISTRAL": {ProviderModel: "mistralai/mistral-large-latest", DisplayName: "Mistral Large", Cost: 4},
}

var agentPrompts = map[string]string{
	"GENERAL":    "تو یک دستیار هوش مصنوعی هوشمند و مفید هستی. به فارسی پاسخ بده و سعی کن پاسخ‌های دقیق و کاربردی ارائه دهی.",
	"CODER":      "تو یک برنامه‌نویس متخصص هستی. کد تمیز و بهینه بنویس، توضیحات کامل بده و بهترین روش‌ها را پیشنهاد کن. به فارسی توضیح بده.",
	"WRITER":     "تو یک نویسنده حرفه‌ای هستی. محتوای خلاقانه، جذاب و با کیفیت بالا بنویس. سبک نوشتن را با نیاز کاربر تطبیق بده.",
	"FINANCIAL":  "تو یک مشاور مالی متخصص بازار ایران هستی. تحلیل‌های دقیق از بازار بورس، ارز، طلا و رمزارزها ارائه بده. همیشه هشدار ریسک بده.",
	"TRANSLATOR": "تو یک مترجم حرفه‌ای هستی. متن‌ها را با دقت و حفظ معنا و لحن اصلی ترجمه کن.",
	"MARKETING":  "تو یک متخصص بازاریابی دیجیتال هستی. استراتژی‌های بازاریابی، محتوا و تبلیغات پیشنهاد بده.",
}

// LookupModel resolves a client model key, falling back to the default for
// unknown keys. It returns the resolved key alongside the model info.
func LookupModel(key string) (string, ModelInfo) {
	if info, ok := modelCatalog[key]; ok {
		return key, info
	}
	return DefaultModelKey, modelCatalog[DefaultModelKey]
}

// LookupAgent resolves an agent key to its system prompt, falling back to
// the general-purpose persona.
func LookupAgent(key string) (string, string) {
	if prompt, ok := agentPrompts[key]; ok {
		return key, prompt
	}
	return DefaultAgentKey, agentPrompts[DefaultAgentKey]
}

// TurnCost is the total credits a single turn with the given model costs.
func TurnCost(modelKey string) int64 {
	_, info := LookupModel(modelKey)
	return BaseMessageCost + info.Cost
}
