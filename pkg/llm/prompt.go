package llm

import (
	"fmt"
)

// prompt asks for a ready-to-use RSS 2.0 document and nothing else
const promptTemplate = `You are an expert in web content analysis and RSS feed creation.
Your task is to analyze the content of the provided news website URL and create a valid RSS 2.0 feed in XML format.

Website URL: %s

Instructions:
1. Examine the main page of the URL to identify the latest news articles.
2. For the main RSS channel, determine the title of the website, use the provided URL as the <link>, and write a short, fitting <description>.
3. For each article you identify (try to get at least 10-15 recent articles), extract the following:
    - <title>: The full title of the article.
    - <link>: The absolute, direct URL to the article page.
    - <description>: A short summary or the first paragraph of the article. Wrap the description in CDATA if it contains special characters or HTML.
    - <pubDate>: The publication date, formatted according to RFC 822 (e.g. "Sat, 07 Sep 2002 00:00:01 GMT"). If you cannot find the date, omit this tag for that item.
    - <guid>: Use the article link as the globally unique identifier.
4. Build the final output as a single, well-formed XML block. Do not include any explanatory text before or after the XML. The root element must be <rss version="2.0">.
`

// BuildPrompt makes the generation instruction for the target site URL
func BuildPrompt(targetURL string) string {
	return fmt.Sprintf(promptTemplate, targetURL)
}
