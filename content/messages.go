package content

import "fmt"

// MessageID names one entry of the fixed notification set.
type MessageID string

const (
	MsgSaveSuccess       MessageID = "save_success"
	MsgSaveFailed        MessageID = "save_failed"
	MsgSyncSuccess       MessageID = "wi_sync_success"
	MsgSyncNoBook        MessageID = "wi_sync_no_book"
	MsgSyncAPIMissing    MessageID = "wi_api_missing"
	MsgSyncWriteFailed   MessageID = "wi_write_failed"
	MsgSnapshotSaved     MessageID = "snapshot_saved"
	MsgStorageFailed     MessageID = "storage_failed"
	MsgGenerationFailed  MessageID = "generation_failed"
	MsgHistoryCleared    MessageID = "history_cleared"
	MsgTemplateSaved     MessageID = "template_saved"
	MsgPromptsSaved      MessageID = "prompts_saved"
	MsgPersonaSwitched   MessageID = "persona_switched"
	MsgIndependentConfig MessageID = "independent_config"
)

// DefaultLang is used when a language has no catalog.
const DefaultLang = "en"

var catalogs = map[string]map[MessageID]string{
	"en": {
		MsgSaveSuccess:       "Persona \"%s\" saved",
		MsgSaveFailed:        "Could not save persona: %s",
		MsgSyncSuccess:       "World info updated in book \"%s\"",
		MsgSyncNoBook:        "No world book is bound to the current character",
		MsgSyncAPIMissing:    "World info API is not available",
		MsgSyncWriteFailed:   "World info write failed: %s",
		MsgSnapshotSaved:     "Draft snapshot saved to history",
		MsgStorageFailed:     "Could not save %s: %s",
		MsgGenerationFailed:  "Generation failed: %s",
		MsgHistoryCleared:    "History cleared",
		MsgTemplateSaved:     "Template saved",
		MsgPromptsSaved:      "Prompts saved",
		MsgPersonaSwitched:   "Switched active persona to \"%s\"",
		MsgIndependentConfig: "Independent API needs a URL and a model",
	},
	"zh": {
		MsgSaveSuccess:       "已保存人设「%s」",
		MsgSaveFailed:        "人设保存失败：%s",
		MsgSyncSuccess:       "已同步到世界书「%s」",
		MsgSyncNoBook:        "当前角色未绑定世界书",
		MsgSyncAPIMissing:    "世界书接口不可用",
		MsgSyncWriteFailed:   "世界书写入失败：%s",
		MsgSnapshotSaved:     "草稿快照已保存到历史",
		MsgStorageFailed:     "无法保存%s：%s",
		MsgGenerationFailed:  "生成失败：%s",
		MsgHistoryCleared:    "历史已清空",
		MsgTemplateSaved:     "模板已保存",
		MsgPromptsSaved:      "提示词已保存",
		MsgPersonaSwitched:   "已切换当前人设为「%s」",
		MsgIndependentConfig: "独立接口需要填写地址和模型",
	},
}

// Message formats id in lang, falling back to English for unknown languages
// or missing entries.
func Message(lang string, id MessageID, args ...any) string {
	format, ok := catalogs[lang][id]
	if !ok {
		format, ok = catalogs[DefaultLang][id]
	}
	if !ok {
		return string(id)
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Languages lists the languages that have a catalog.
func Languages() []string {
	return []string{"en", "zh"}
}
