package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE installations (
				id VARCHAR(255) PRIMARY KEY,
				organization_id VARCHAR(255) NOT NULL,
				plugin_slug VARCHAR(255) NOT NULL,
				config JSONB NOT NULL DEFAULT '{}',
				events JSONB,
				active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_installations_organization_id ON installations(organization_id);
			CREATE INDEX idx_installations_plugin_slug ON installations(plugin_slug);

			CREATE TABLE webhook_subscriptions (
				id VARCHAR(255) PRIMARY KEY,
				organization_id VARCHAR(255) NOT NULL,
				url TEXT NOT NULL,
				secret VARCHAR(255) NOT NULL,
				events JSONB,
				active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_webhook_subscriptions_organization_id ON webhook_subscriptions(organization_id);

			CREATE TABLE dispatch_records (
				id VARCHAR(255) PRIMARY KEY,
				organization_id VARCHAR(255) NOT NULL,
				event_id VARCHAR(255) NOT NULL,
				event_name VARCHAR(255) NOT NULL,
				plugin_slug VARCHAR(255) NOT NULL,
				installation_id VARCHAR(255) NOT NULL,
				success BOOLEAN NOT NULL,
				action VARCHAR(50) NOT NULL DEFAULT '',
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_dispatch_records_organization_id ON dispatch_records(organization_id);
			CREATE INDEX idx_dispatch_records_created_at ON dispatch_records(created_at);

			CREATE TABLE delivery_records (
				id VARCHAR(255) PRIMARY KEY,
				organization_id VARCHAR(255) NOT NULL,
				subscription_id VARCHAR(255) NOT NULL,
				event_name VARCHAR(255) NOT NULL,
				status_code INT NOT NULL DEFAULT 0,
				success BOOLEAN NOT NULL,
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_delivery_records_subscription_id ON delivery_records(subscription_id);
			CREATE INDEX idx_delivery_records_created_at ON delivery_records(created_at);
		`,
	}
}
