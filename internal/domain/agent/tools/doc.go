// Package tools implements the recruiter agent's tools: profile vector
// search, adding candidates to the bound job, web search and page reading.
package tools
