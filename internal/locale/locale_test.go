package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslations(t *testing.T) {
	assert.Equal(t, "I suggest this action: create a task", T("en", MsgProposal, "create a task"))
	assert.Equal(t, "我建议执行此操作：创建任务", T("zh", MsgProposal, "创建任务"))
	assert.Equal(t, "Understood, action was canceled.", T("en", MsgCanceled))
	assert.Equal(t, "好的，操作已取消。", T("zh", MsgCanceled))
	assert.Equal(t, "Requested action was not found or has expired.", T("en", MsgActionNotFound))
	assert.Equal(t, "Done. note created", T("en", MsgActionDone, "note created"))
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, T("en", MsgCanceled), T("xx", MsgCanceled))
	assert.Equal(t, T("en", MsgUnavailable), T("ja", MsgUnavailable))
}

func TestUnknownIDReturnsID(t *testing.T) {
	assert.Equal(t, "no_such_message", T("en", "no_such_message"))
}

func TestEveryMessageHasAllLanguages(t *testing.T) {
	langs := []string{"en", "zh", "es", "de", "fr"}
	for id, byLang := range catalog {
		for _, lang := range langs {
			assert.NotEmpty(t, byLang[lang], "message %s missing %s", id, lang)
		}
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("en"))
	assert.True(t, Supported("fr"))
	assert.False(t, Supported("ja"))
	assert.False(t, Supported(""))
}
