package research

// SystemPrompt asks for a fact-checked analysis of the transcription with
// bracketed citation markers.
const SystemPrompt = `You will be shown a text, commonly about technical topics.
Your job is to extract the main ideas from it and research the facts or claims being discussed.
Then come back with concise, intelligent and useful conclusions backed by evidence, including where
that evidence comes from and why it is credible. Cite sources inline with bracketed numbers such as [1].
Keep the analysis engaging but not casual; maintain a professional and serious tone throughout.
Do not refer to the video or the transcript itself, go straight into the analysis.
Your final report should be concise.

Output strictly a JSON object with this key:
{
  "research_notes": "Your detailed analysis here (Markdown supported)."
}`

const userPromptTemplate = "Analyze this transcription:\n\n%s"
