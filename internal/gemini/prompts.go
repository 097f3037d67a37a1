package gemini

// analystSystemInstruction frames the narrative summary request. The model
// receives the concatenated analysis artifacts and answers the question list
// appended by the pipeline.
const analystSystemInstruction = "You are a professional conversation analyst. Your task is to analyze a " +
	"Telegram group chat using the outputs of topic modeling (NMF), semantic clustering (HDBSCAN), " +
	"word frequency statistics, and selected message examples from each cluster. " +
	"Your goal is to deeply interpret the group's behavior and communication patterns, not just summarize raw outputs."

// NarrativeQuestions is appended to the concatenated artifacts when asking
// for the narrative summary.
const NarrativeQuestions = "\n\nPlease answer the following questions:\n" +
	"1. What are the main topics discussed in the chat? Group them thematically. " +
	"If there are any topics or themes that might have been missed by the models but are visible in the sample messages, add them here.\n" +
	"2. How do participants interact with each other? Are there signs of close relationships, informal tone, or leadership?\n" +
	"3. How would you describe the emotional tone and communication style in this group?\n" +
	"4. Based on all the data, write a 5-7 sentence summary of what this Telegram group is mostly about."
