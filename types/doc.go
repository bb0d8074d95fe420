/*
Package types provides the shared type definitions for helium.

types is the lowest-level public package and depends on no other helium
package. Cross-package contracts live here to avoid import cycles:

  - Message / Role: conversation turns recorded per research session
  - Error / ErrorCode: structured error scheme with HTTP status mapping
    and a Retryable marker

Error values are created with NewError or Errorf and enriched through the
chainable WithCause, WithHTTPStatus, and WithRetryable methods. Helpers
IsRetryable, GetErrorCode, and HTTPStatusFor inspect arbitrary errors by
unwrapping through the standard errors chain.
*/
package types
