package driven

// ConnectorBuilder creates a Connector rooted at a location.
type ConnectorBuilder func(root string) Connector
