package events

// HealthCheck checks if RabbitMQ is available
func (p *Publisher) HealthCheck() string {
	if p == nil {
		return "not configured"
	}

	if p.conn == nil || p.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if p.channel == nil {
		return "unhealthy: channel not available"
	}

	return "healthy"
}
