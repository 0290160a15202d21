/*
Package browser fetches web pages on behalf of the recruiter agent and turns
them into readable text.

# Pipeline

 1. The URL is validated (http or https only) and checked against the
    blocked host list. LinkedIn pages are always blocked; profiles are read
    through the linkedin provider instead.
 2. The page is fetched through the shared upstream client (retries, rate
    limit, circuit breaker).
 3. The body is decoded to UTF-8 using the Content-Type charset, falling back
    to statistical detection with chardet.
 4. Markup is sanitized with bluemonday so scripts, styles and frames never
    reach the text extractor.
 5. goquery walks the sanitized document and emits lightweight markdown:
    headings become "#" lines, list items become "- " lines, and block
    elements end with a newline.

The result is truncated to MaxTextLength runes so a single page cannot flood
the model context.
*/
package browser
