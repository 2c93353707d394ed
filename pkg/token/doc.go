// Package token generates management tokens and stores them as Argon2id
// hashes.
//
// Token format: "art_" followed by 43 characters of base64 RawURL text
// (32 random bytes).
//
// Hash format, PHC style:
//
//	$argon2id$v=19$m=16384,t=2,p=2$<salt>$<key>
//
// Only hashes go into configuration; Verify compares in constant time.
package token
