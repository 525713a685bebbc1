// Package locale holds the catalog of user-facing assistant strings, keyed
// by message id and language code. Unknown languages fall back to English.
package locale

import "fmt"

// Message ids.
const (
	MsgProposal       = "proposal"        // mutating action proposed, awaiting confirmation
	MsgCanceled       = "canceled"        // user rejected the proposal
	MsgActionNotFound = "action_notfound" // decision referenced an unknown/expired proposal
	MsgActionDone     = "action_done"     // approved action executed successfully
	MsgActionFailed   = "action_failed"   // approved action execution failed
	MsgUnavailable    = "unavailable"     // completion provider unreachable
	MsgTooBroad       = "too_broad"       // loop budget exhausted
	MsgEmptyAnswer    = "empty_answer"    // provider returned neither text nor tool calls
)

var catalog = map[string]map[string]string{
	MsgProposal: {
		"en": "I suggest this action: %s",
		"zh": "我建议执行此操作：%s",
		"es": "Sugiero esta acción: %s",
		"de": "Ich schlage diese Aktion vor: %s",
		"fr": "Je suggère cette action : %s",
	},
	MsgCanceled: {
		"en": "Understood, action was canceled.",
		"zh": "好的，操作已取消。",
		"es": "Entendido, la acción fue cancelada.",
		"de": "Verstanden, die Aktion wurde abgebrochen.",
		"fr": "Compris, l'action a été annulée.",
	},
	MsgActionNotFound: {
		"en": "Requested action was not found or has expired.",
		"zh": "未找到请求的操作，或该操作已过期。",
		"es": "La acción solicitada no se encontró o ha caducado.",
		"de": "Die angeforderte Aktion wurde nicht gefunden oder ist abgelaufen.",
		"fr": "L'action demandée est introuvable ou a expiré.",
	},
	MsgActionDone: {
		"en": "Done. %s",
		"zh": "已完成。%s",
		"es": "Hecho. %s",
		"de": "Erledigt. %s",
		"fr": "C'est fait. %s",
	},
	MsgActionFailed: {
		"en": "The action could not be completed: %s",
		"zh": "操作未能完成：%s",
		"es": "La acción no pudo completarse: %s",
		"de": "Die Aktion konnte nicht abgeschlossen werden: %s",
		"fr": "L'action n'a pas pu être effectuée : %s",
	},
	MsgUnavailable: {
		"en": "The assistant is temporarily unavailable. Please try again in a moment.",
		"zh": "助手暂时不可用，请稍后再试。",
		"es": "El asistente no está disponible temporalmente. Inténtalo de nuevo en un momento.",
		"de": "Der Assistent ist vorübergehend nicht verfügbar. Bitte versuche es gleich noch einmal.",
		"fr": "L'assistant est temporairement indisponible. Veuillez réessayer dans un instant.",
	},
	MsgTooBroad: {
		"en": "This request is too broad for one pass. Please clarify what to prioritize.",
		"zh": "这个请求一次处理不完，请说明优先处理哪一部分。",
		"es": "Esta petición es demasiado amplia para una sola pasada. Aclara qué priorizar.",
		"de": "Diese Anfrage ist zu umfangreich für einen Durchgang. Bitte präzisiere, was Priorität hat.",
		"fr": "Cette demande est trop vaste pour une seule passe. Précisez ce qu'il faut prioriser.",
	},
	MsgEmptyAnswer: {
		"en": "I could not produce an answer for that. Could you rephrase?",
		"zh": "我无法给出回答，能换种说法吗？",
		"es": "No pude generar una respuesta. ¿Puedes reformularlo?",
		"de": "Ich konnte darauf keine Antwort erzeugen. Kannst du es umformulieren?",
		"fr": "Je n'ai pas pu produire de réponse. Pouvez-vous reformuler ?",
	},
}

// T returns the message for id in lang, formatted with args. Unknown
// languages fall back to English; unknown ids return the id itself so a
// missing entry is visible rather than silent.
func T(lang, id string, args ...any) string {
	byLang, ok := catalog[id]
	if !ok {
		return id
	}
	msg, ok := byLang[lang]
	if !ok {
		msg = byLang["en"]
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Supported reports whether lang has first-class catalog entries.
func Supported(lang string) bool {
	_, ok := catalog[MsgCanceled][lang]
	return ok
}
