package s3types

import awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

// StorageClass represents the storage tier for uploaded objects.
type StorageClass string

// Supported storage classes.
const (
	// StorageClassStandard is the default S3 storage class
	StorageClassStandard StorageClass = "Standard"

	// StorageClassStandardInfrequent provides infrequent access storage
	StorageClassStandardInfrequent StorageClass = "StandardInfrequent"

	// StorageClassReduced provides reduced redundancy storage
	StorageClassReduced StorageClass = "Reduced"

	// StorageClassGlacier provides Glacier archival storage
	StorageClassGlacier StorageClass = "Glacier"

	// StorageClassOneZoneInfrequent provides one zone infrequent access storage
	StorageClassOneZoneInfrequent StorageClass = "OneZoneInfrequent"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "IntelligentTiering"

	// StorageClassDeepArchive provides Deep Archive storage
	StorageClassDeepArchive StorageClass = "DeepArchive"

	// StorageClassGlacierInstantRetrieval provides Glacier Instant Retrieval storage
	StorageClassGlacierInstantRetrieval StorageClass = "GlacierInstantRetrieval"
)

var storageClasses = map[StorageClass]awstypes.StorageClass{
	StorageClassStandard:                awstypes.StorageClassStandard,
	StorageClassStandardInfrequent:      awstypes.StorageClassStandardIa,
	StorageClassReduced:                 awstypes.StorageClassReducedRedundancy,
	StorageClassGlacier:                 awstypes.StorageClassGlacier,
	StorageClassOneZoneInfrequent:       awstypes.StorageClassOnezoneIa,
	StorageClassIntelligentTiering:      awstypes.StorageClassIntelligentTiering,
	StorageClassDeepArchive:             awstypes.StorageClassDeepArchive,
	StorageClassGlacierInstantRetrieval: awstypes.StorageClassGlacierIr,
}

// SDK returns the S3 storage class constant. Unknown values map to STANDARD.
func (s StorageClass) SDK() awstypes.StorageClass {
	if class, ok := storageClasses[s]; ok {
		return class
	}
	return awstypes.StorageClassStandard
}

// CannedACL is a predefined access policy applied to uploaded objects.
type CannedACL string

// Supported canned ACLs.
const (
	ACLPrivate                CannedACL = "Private"
	ACLPublicRead             CannedACL = "PublicRead"
	ACLPublicReadWrite        CannedACL = "PublicReadWrite"
	ACLAuthenticatedRead      CannedACL = "AuthenticatedRead"
	ACLAWSExecRead            CannedACL = "AWSExecRead"
	ACLBucketOwnerRead        CannedACL = "BucketOwnerRead"
	ACLBucketOwnerFullControl CannedACL = "BucketOwnerFullControl"
)

var cannedACLs = map[CannedACL]awstypes.ObjectCannedACL{
	ACLPrivate:                awstypes.ObjectCannedACLPrivate,
	ACLPublicRead:             awstypes.ObjectCannedACLPublicRead,
	ACLPublicReadWrite:        awstypes.ObjectCannedACLPublicReadWrite,
	ACLAuthenticatedRead:      awstypes.ObjectCannedACLAuthenticatedRead,
	ACLAWSExecRead:            awstypes.ObjectCannedACLAwsExecRead,
	ACLBucketOwnerRead:        awstypes.ObjectCannedACLBucketOwnerRead,
	ACLBucketOwnerFullControl: awstypes.ObjectCannedACLBucketOwnerFullControl,
}

// SDK returns the S3 canned ACL constant. An empty ACL returns "" so no header
// is sent; unknown values map to private.
func (a CannedACL) SDK() awstypes.ObjectCannedACL {
	if a == "" {
		return ""
	}
	if acl, ok := cannedACLs[a]; ok {
		return acl
	}
	return awstypes.ObjectCannedACLPrivate
}
