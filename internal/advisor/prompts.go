package advisor

import (
	"fmt"
	"strings"
)

// Prompts instruct models to answer with a bare JSON object. Responses
// frequently arrive wrapped in prose or markdown anyway; the extract
// package handles that.

func locationClause(location string) string {
	if location == "" {
		return "The shopper's location is unknown; use a typical US rate where one is needed."
	}
	return fmt.Sprintf("The shopper is located in %s.", location)
}

func taxPrompt(item, location string) string {
	return fmt.Sprintf(`What sales tax rate applies to %q? %s
Respond with only a JSON object of the form {"taxRate": <number|null>, "explanation": "<short reason>"}.
The taxRate is a percentage, e.g. 6.25 for 6.25%%. Use null if the rate cannot be determined.`,
		item, locationClause(location))
}

func priceTagPrompt(location string) string {
	return fmt.Sprintf(`This photo shows a retail price tag. %s
Read it and respond with only a JSON object of the form
{"name": "<product name>", "price": <number>, "taxRate": <number|null>, "taxDescription": "<why that rate, or empty>", "ingredients": <string|null>, "issues": ["<anything unreadable or ambiguous>"]}.
Use null for taxRate if the tag does not indicate taxability and you cannot infer it.`,
		locationClause(location))
}

func priceSearchPrompt(item, spec, site, location string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search %s for the current price of %q.", site, item)
	if spec != "" {
		fmt.Fprintf(&b, " Specification: %s.", spec)
	}
	fmt.Fprintf(&b, " %s\n", locationClause(location))
	b.WriteString(`Respond with only a JSON object of the form {"found": <bool>, "itemName": "<name as listed>", "price": <number|null>, "description": "<short description>", "sourceUrl": <string|null>}.`)
	return b.String()
}

func priceGuessPrompt(req GuessRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimate the typical shelf price of %q.", req.Item)
	if req.Brand != "" {
		fmt.Fprintf(&b, " Brand: %s.", req.Brand)
	}
	if req.Store != "" {
		fmt.Fprintf(&b, " Store: %s.", req.Store)
	}
	if req.Details != "" {
		fmt.Fprintf(&b, " Details: %s.", req.Details)
	}
	fmt.Fprintf(&b, " %s\n", locationClause(req.Location))
	b.WriteString(`Respond with only a JSON object of the form {"price": <number|null>, "sourceUrl": <string|null>, "explanation": <string|null>}.`)
	return b.String()
}

func additivesPrompt(product string) string {
	return fmt.Sprintf(`List the food additives typically present in %q and classify each as risky or safe.
Respond with only a JSON object of the form
{"riskyCount": <int>, "safeCount": <int>, "additives": [{"name": "<additive>", "riskLevel": "<risky|safe>", "description": "<short note>"}], "error": ""}.
If you cannot determine the additive content, set "error" to a short explanation and leave the other fields empty.`,
		product)
}
