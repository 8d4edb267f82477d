package agent

import (
	"fmt"

	"github.com/richinex/supplysentinel/model"
)

const mapperSystemPrompt = "You are a Global Supply Chain Expert specializing in materials sourcing. " +
	"Your goal is to identify critical MATERIALS (not specific companies) and their dominant export countries for a given business. " +
	"Focus on industry-standard dependencies based on the business type."

func mapperPrompt(description string) string {
	return fmt.Sprintf(`Based on: %q, identify the top 3 critical MATERIALS this business depends on.
For each material, specify the DOMINANT EXPORT COUNTRY (not specific suppliers).

Focus on:
- Raw materials or key components (e.g., "Lithium" not "Tesla suppliers")
- Industry-standard sourcing patterns (e.g., "Semiconductors from Taiwan")
- Geopolitical supply chain realities

Return a JSON object with a "dependencies" list of objects with "material" and "location" keys.
Example:
{"dependencies": [
    {"material": "Lithium", "location": "Chile"},
    {"material": "Cobalt", "location": "Democratic Republic of Congo"}
]}`, description)
}

func collectorPrompt(dep model.Dependency) string {
	return fmt.Sprintf(`Find recent logistics, weather, or political news that could affect the supply of %s from %s.
Focus on strikes, shortages, or natural disasters in the last 7 days.`, dep.Material, dep.Origin)
}

func broadCollectorPrompt(dep model.Dependency) string {
	return fmt.Sprintf(`Find recent logistics, weather, or political news affecting %s supply globally.
Focus on strikes, shortages, or natural disasters in the last 7 days.`, dep.Material)
}

func scorerPrompt(dep model.Dependency, signal string) string {
	return fmt.Sprintf(`CONTEXT: You are a Supply Chain Risk Officer.
INPUT DATA: %s

TASK: Analyze the risk for %s from %s.

OUTPUT: JSON with:
- risk_score (0-10, where 10 is factory shutdown, 0 means no relevant information found)
- reason (1 sentence)
- action_needed (boolean)
- retry_search (boolean - true if score is 0 and a broader search might help)`, signal, dep.Material, dep.Origin)
}
