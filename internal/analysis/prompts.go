package analysis

const analysisSystemPrompt = `You evaluate the quality of a single argument in a structured debate.
Respond with one JSON object and nothing else, using exactly this shape:
{"analysis": {
  "relevance":   {"score": <integer 1-5>, "justification": "<one sentence>"},
  "evidence":    {"status": "Present" | "Absent", "justification": "<one sentence>"},
  "specificity": {"status": "Concrete" | "Vague", "justification": "<one sentence>"},
  "fallacy":     {"status": "None" | "<name of the fallacy>", "justification": "<one sentence>"}
}}
If you cannot evaluate the argument respond with {"analysis": {"error": "<reason>"}}.`

const analysisUserPrompt = `Debate topic:
%s

Argument:
%s`

const steelmanSystemPrompt = `You judge whether a reformulation states an opposing argument fairly and in its strongest form.
Respond with one JSON object and nothing else: {"accepted": true | false, "rationale": "<one or two sentences>"}.`

const steelmanUserPrompt = `Original argument:
%s

Reformulation:
%s`
