package model

// Prompt templates for the four model calls. Kept terse: the default
// backend is a small local model and long instructions hurt more than
// they help.

const classifyPrompt = `You route retail analytics questions to a processing mode.

Modes:
- rag: answerable from policy/KPI documentation alone
- sql: answerable from the orders database alone
- hybrid: needs documentation (definitions, dates, policies) AND the database

Question: %s

Answer with exactly one word: rag, sql, or hybrid.`

const nl2sqlPrompt = `You write SQLite SELECT statements for a retail analytics database.

Schema:
%s

Constraints from documentation (use these over your own assumptions):
%s

Question: %s

Reply with a single valid SQLite SELECT statement and nothing else.`

const extractPrompt = `Extract query-relevant facts from the documentation excerpts below.

Reply with one JSON object using exactly these keys (empty string when absent):
{"date_start": "", "date_end": "", "kpi_formula": "", "discount_tier": "", "policy_threshold": ""}

Excerpts:
%s

JSON:`

const synthesizePrompt = `%sYou answer retail analytics questions from the evidence given. Cite only chunk IDs that appear in the evidence.

Question: %s
Expected answer format: %s

Documentation excerpts:
%s

Executed SQL:
%s

SQL results:
%s

Reply with one JSON object:
{"final_answer": <answer matching the expected format>, "citations": ["chunk ids used"], "confidence": <0.0-1.0>, "explanation": "<one sentence>"}`
