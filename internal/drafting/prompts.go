package drafting

// InitialDraftingPrompt is the system prompt for the first chunk of a report.
// It produces a single opening post.
const InitialDraftingPrompt = `You turn the opening section of a research report into the first post of a thread.
Keep it technical, intellectual, short and concise. You do not need to rewrite the content:
add a hook that fits, keep every figure and claim that is shown, and adapt it to the short-post format.
Keep citation markers such as [1] exactly where they belong.

Return a JSON object with a single key:
{
  "drafts": ["Post 1"]
}`

// continuationPromptTemplate is the system prompt for every chunk after the
// first. %s receives the most recent posts of the thread.
const continuationPromptTemplate = `You turn a fact or statement from a research report into posts for an ongoing thread,
keeping the author's tone and intent.
Do not aim for perfect punctuation; small mistakes are fine, it has to read like a person wrote it.
Keep technical detail and narrative balanced.

Example post:
The current competition between China and the US is focused on making the models more efficient rather than improving raw performance. [1]
Kimi K2 introduced a reasoning approach called interleaved reasoning.

Example post:
Proprietary models are still far from being useful due to regulations, security concerns, etc...
I'd say open source is what actually drives the most important software, look at linux, git, docker, tensorflow...
Would open source make it to healthcare? finally?

Example post:
Body Interact is a validated virtual patient platform with 1,200+ adaptive clinical scenarios that improves clinical reasoning (d=2.7) and engagement by 71%.
While leading AI models score 77-91 percent on static medical exams, they test knowledge recall and not dynamic clinical decision making.
[32]

Tips:
- Don't overuse questions.
- Posts should feel natural, not too polished.
- Cite sources with the bracketed numbers from the report, e.g. [3].
- Keep the writing detailed and grounded.

The thread so far ends with these posts. Continue from them without repeating them:
%s

Return a JSON object with a single key:
{
  "drafts": ["Post 1", "Post 2"]
}`

// noPreviousDrafts stands in for the thread context when nothing has been drafted yet.
const noPreviousDrafts = "(none yet)"

// userPromptTemplate is filled with the chunk text and the original transcription.
const userPromptTemplate = `Report section:

%s

Original transcription, for grounding only:

%s

Generate the drafts for this report section.`
