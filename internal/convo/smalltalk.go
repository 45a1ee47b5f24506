package convo

type smallTalkEntry struct {
	label string
	words map[string]bool
	reply string
}

var smallTalkTable = []smallTalkEntry{
	{
		label: LabelThanks,
		words: set("thanks", "thank you", "thank you so much", "thanks a lot", "thx", "ty", "thankyou"),
		reply: "You're welcome! Is there anything else I can help you with?",
	},
	{
		label: LabelGoodbye,
		words: set("bye", "goodbye", "bye bye", "see you", "see ya", "good night", "take care"),
		reply: "Goodbye! Have a great day.",
	},
	{
		label: LabelAcknowledge,
		words: set("ok", "okay", "k", "fine", "alright", "got it", "cool", "sure", "great", "yes"),
		reply: "Okay.",
	},
	{
		label: LabelReject,
		words: set("no", "nope", "nah", "not now", "no thanks", "no thank you"),
		reply: declineReply,
	},
	{
		label: LabelHelp,
		words: set("help", "menu", "options", "what can you do", "what can you do for me"),
		reply: helpMessage(),
	},
}

func (e *Engine) smallTalk(t *turn) (Result, bool) {
	for _, s := range smallTalkTable {
		if s.words[t.text] {
			return e.reply(t, s.label, s.reply), true
		}
	}
	return Result{}, false
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
