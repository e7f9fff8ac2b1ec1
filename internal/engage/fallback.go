package engage

// Canned replies used when the model is unavailable or its output
// fails the safety filter. In-character and strategy-appropriate, but
// generic enough to follow any scammer message.
var fallbackReplies = map[Strategy]map[string][]string{
	StrategyBuildTrust: {
		"en": {
			"Oh okay, I did not know about this. Can you tell me again who you are from?",
			"Sorry, I was away from my phone. What is this regarding exactly?",
		},
		"hi": {
			"अच्छा जी, मुझे इसके बारे में पता नहीं था। आप किस विभाग से बोल रहे हैं?",
			"माफ़ कीजिए, फ़ोन दूर था। यह किस बारे में है?",
		},
		"hinglish": {
			"Achha ji, mujhe iske baare mein pata nahi tha. Aap kahan se bol rahe hain?",
			"Sorry ji, phone door tha. Ye kis baare mein hai?",
		},
	},
	StrategyShowInterest: {
		"en": {
			"Really? That sounds good. How does it work, please explain once more.",
			"Oh that is a big amount! What do I have to do for this?",
		},
		"hi": {
			"सच में? यह तो अच्छा है। यह कैसे होता है, एक बार फिर समझाइए।",
			"अरे यह तो बड़ी रकम है! इसके लिए मुझे क्या करना होगा?",
		},
		"hinglish": {
			"Sach mein? Ye toh achha hai. Ek baar phir samjhaiye kaise hota hai.",
			"Arre itna paisa! Iske liye mujhe kya karna hoga?",
		},
	},
	StrategyRequestDetails: {
		"en": {
			"Okay I am ready, but where exactly do I send it? Please give the full details again slowly.",
			"My son says I should note everything down. Can you send the number again?",
		},
		"hi": {
			"ठीक है, मैं तैयार हूँ। पर भेजना कहाँ है? पूरी जानकारी धीरे-धीरे फिर से भेजिए।",
			"बेटा बोला सब लिख लो। नंबर फिर से भेज दीजिए।",
		},
		"hinglish": {
			"Theek hai, main ready hoon. Par bhejna kahan hai? Details phir se bhejiye na.",
			"Beta bola sab likh lo. Number ek baar phir bhej dijiye.",
		},
	},
	StrategyStall: {
		"en": {
			"The app is showing some error, let me try after some time. Please do not cancel my case.",
			"I went to the bank but there was a long line. Tomorrow morning first thing, promise.",
		},
		"hi": {
			"ऐप में कुछ एरर आ रहा है, थोड़ी देर बाद कोशिश करती हूँ। मेरा केस कैंसिल मत कीजिए।",
			"बैंक गई थी पर बहुत लाइन थी। कल सुबह पक्का कर दूँगी।",
		},
		"hinglish": {
			"App mein kuch error aa raha hai, thodi der baad try karti hoon. Mera case cancel mat kijiye.",
			"Bank gaya tha par bahut line thi. Kal subah pakka kar dunga.",
		},
	},
}

// fallbackReply picks a canned reply for the strategy and language,
// rotating by turn so consecutive fallbacks differ. Unknown languages
// get English.
func fallbackReply(s Strategy, language string, turn int) string {
	byLang, ok := fallbackReplies[s]
	if !ok {
		byLang = fallbackReplies[StrategyShowInterest]
	}
	replies, ok := byLang[language]
	if !ok || len(replies) == 0 {
		replies = byLang["en"]
	}
	if turn < 1 {
		turn = 1
	}
	return replies[(turn-1)%len(replies)]
}
