// Package ports defines the interfaces between the collaboration core
// and its driven adapters: persistence stores, credential
// authentication, the generation engine, and the per-connection
// delivery sink. Adapters under internal/ implement them; the core and
// the HTTP surface depend only on these contracts.
package ports
