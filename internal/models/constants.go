package models

const (
	// NoContextAnswer is returned when no retrieved chunk passes the
	// distance filter. Callers test for this exact string.
	NoContextAnswer = "I don't have relevant information in my knowledge base."

	// GenericErrorAnswer is the fail-soft answer for retrieval or
	// generation failures.
	GenericErrorAnswer = "An error occurred while processing your question."

	// RefusalSentence is the reply the model is instructed to give when
	// the answer is not in the supplied context.
	RefusalSentence = "I don't have enough information to answer this question."

	SystemInstruction = "Only use provided context to answer the given question"
)

var AnswerPromptTemplate = `Using only the following context, answer the question.

Context:
%s

Question:
%s

Answer based ONLY on the context above. If the answer is not in the context, reply with "` + RefusalSentence + `"

Answer:`
