package fetcher

// Fetcher interface defines the contract for price text retrieval
type Fetcher interface {
	// Fetch retrieves the text content of the element at the given XPath
	// on the page at url. A single attempt per call; any timeout, missing
	// element or transport problem is returned as an error.
	Fetch(url string, xpath string) (string, error)
}
